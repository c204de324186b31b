package model

// Message is one direct message between two users. The log is append-only:
// nothing ever mutates a stored message except the Read flag, which flips to
// true when the recipient opens the thread.
type Message struct {
	ID        int64  `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds, the ordering key
	Read      bool   `json:"read"`
}

// Conversation is a derived, per-viewer row — it is never persisted.
// For a given viewer, the message log is grouped by counterpart username;
// the row keeps the most recent message and flags the conversation unread
// when that latest message is addressed to the viewer and still unread.
type Conversation struct {
	WithUser    string `json:"withUser"`
	LastMessage string `json:"lastMessage"` // truncated to 50 characters
	Timestamp   int64  `json:"timestamp"`
	Unread      bool   `json:"unread"`
}
