package model

// Post is a public feed entry (an "information" in the UI's vocabulary).
//
// INVARIANT: Likes always equals len(LikedBy). The like operation is a
// toggle keyed on the caller's username, so LikedBy behaves as a set —
// a username appears at most once.
//
// Replies are append-only and kept in insertion order.
type Post struct {
	ID      int64    `json:"id"` // creation time in epoch milliseconds
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Likes   int      `json:"likes"`
	LikedBy []string `json:"likedBy"`
	Replies []Reply  `json:"replies,omitempty"`
}

// Owner returns the username allowed to edit or delete this post.
// It satisfies the ownership predicate used by the feed service.
func (p Post) Owner() string {
	return p.Author
}

// LikedByUser reports whether username is in the LikedBy set.
func (p Post) LikedByUser(username string) bool {
	for _, u := range p.LikedBy {
		if u == username {
			return true
		}
	}
	return false
}

// Reply is a comment attached to a post. Any authenticated user may reply;
// replies are never edited or deleted.
type Reply struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
