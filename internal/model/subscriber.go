package model

// Subscriber is a phone number registered for SMS announcements.
// At most one record per username and one per phone number — enforced at
// insert time by the subscriber service, not as a stored constraint.
type Subscriber struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}
