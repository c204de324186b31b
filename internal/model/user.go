// Package model defines the data structures used throughout the application.
package model

// User represents an account, however it was created.
//
// The username is the single join key used by every other collection —
// posts, messages and subscribers all reference users by username, never by
// numeric ID. For social sign-ins the username is the provider's verified
// email when available, or a provider-prefixed synthetic handle such as
// "google_<sub>" or "gh_<id>" when the email is hidden.
//
// WHY PasswordHash AS A PLAIN STRING?
// An empty PasswordHash is the explicit signal for "this account can only
// authenticate via a social provider". Local login must reject such accounts
// before ever calling bcrypt. Using the empty string as the marker (rather
// than a *string) keeps the JSON round-trip simple: `omitempty` drops the
// field entirely for social-only accounts, matching the stored layout.
//
// The Google/Microsoft/GitHub booleans are provenance flags: each records
// that the given provider has authenticated this identity at least once.
// They are only ever set, never cleared.
type User struct {
	ID           int64  `json:"id"` // creation time in epoch milliseconds
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	Picture      string `json:"picture,omitempty"`
	Google       bool   `json:"google,omitempty"`
	Microsoft    bool   `json:"microsoft,omitempty"`
	GitHub       bool   `json:"github,omitempty"`
}

// HasPassword reports whether local (password) login is possible.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// PublicUser is the directory entry exposed by GET /api/users — just enough
// for the messaging UI to render a recipient picker.
type PublicUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Picture     string `json:"picture,omitempty"`
}

// Public converts a full user record to its directory form, falling back to
// the username when no display name has been set.
func (u User) Public() PublicUser {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return PublicUser{
		Username:    u.Username,
		DisplayName: name,
		Picture:     u.Picture,
	}
}
