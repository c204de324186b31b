package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

// FeedHandler serves the public "informations" feed. It also needs the
// identity service: the author page pairs a user's posts with their public
// profile.
type FeedHandler struct {
	feed     *service.FeedService
	identity *service.IdentityService
	logger   *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(feed *service.FeedService, identity *service.IdentityService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, identity: identity, logger: logger}
}

// postID parses the {id} URL parameter. IDs are epoch-millisecond integers.
func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "invalid id")
	}
	return id, nil
}

// HandleList returns the whole feed, newest first. Works for anonymous
// readers; a logged-in viewer additionally gets their per-post `liked` flag.
//
// HTTP: GET /api/informations
// Auth: Optional
func (h *FeedHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UsernameFromContext(r.Context())

	posts, err := h.feed.List(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post with its replies.
//
// HTTP: GET /api/informations/{id}
func (h *FeedHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.feed.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleMine returns the caller's own posts.
//
// HTTP: GET /api/my-informations
// Auth: Required
func (h *FeedHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	posts, err := h.feed.ByAuthor(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleByAuthor returns a user's public profile together with their posts,
// for the public profile page. Unknown authors still get a stub profile so
// the page renders instead of erroring.
//
// HTTP: GET /api/author/{username}
func (h *FeedHandler) HandleByAuthor(w http.ResponseWriter, r *http.Request) {
	author := chi.URLParam(r, "username")

	profile := map[string]interface{}{
		"username":    author,
		"displayName": author,
		"picture":     nil,
	}
	if user, err := h.identity.Get(r.Context(), author); err == nil {
		pub := user.Public()
		profile["displayName"] = pub.DisplayName
		if pub.Picture != "" {
			profile["picture"] = pub.Picture
		}
	}

	posts, err := h.feed.ByAuthor(r.Context(), author)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":      profile,
		"informations": posts,
	})
}

// HandleCreate publishes a new post under the caller's name and returns
// the created post.
//
// HTTP: POST /api/informations {"title","content"}
// Auth: Required
func (h *FeedHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.feed.Create(r.Context(), username, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate edits the caller's own post. Omitted fields keep their value.
//
// HTTP: PUT /api/informations/{id} {"title"?,"content"?}
// Auth: Required (and author-only, enforced by the service)
func (h *FeedHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.feed.Update(r.Context(), username, id, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "item": post})
}

// HandleDelete removes the caller's own post.
//
// HTTP: DELETE /api/informations/{id}
// Auth: Required (author-only)
func (h *FeedHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.feed.Delete(r.Context(), username, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// HandleLike toggles the caller's like on a post and returns the new count.
//
// HTTP: POST /api/informations/{id}/like
// Auth: Required
func (h *FeedHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	likes, liked, err := h.feed.ToggleLike(r.Context(), username, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"likes": likes,
		"liked": liked,
	})
}

// HandleReply appends a reply to a post. Any logged-in user may reply.
//
// HTTP: POST /api/informations/{id}/reply {"text"}
// Auth: Required
func (h *FeedHandler) HandleReply(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.feed.Reply(r.Context(), username, id, req.Text); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
