package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkowalczyk/dsn-service/internal/search"
)

// SearchHandler proxies the external search and media APIs so the frontend
// never handles an API key.
type SearchHandler struct {
	client *search.Client
	logger *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(client *search.Client, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{client: client, logger: logger}
}

// HandleSearch aggregates text search across the requested sources.
//
// HTTP: GET /api/search?q=...&sources=wikipedia,bing,duck&region=en
//
// sources defaults to all three text sources when absent. Each requested
// source appears in the response (empty array when it found nothing);
// unrequested sources are omitted entirely.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	region := r.URL.Query().Get("region")

	var sources []string
	if raw := r.URL.Query().Get("sources"); raw != "" {
		sources = strings.Split(raw, ",")
	}

	resp, err := h.client.Search(r.Context(), q, region, sources)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleArchive searches archive.org.
//
// HTTP: GET /api/archive?q=...&mediatype=movies
func (h *SearchHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	mediatype := r.URL.Query().Get("mediatype")

	items, err := h.client.Archive(r.Context(), q, mediatype)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"q": q, "items": items})
}

// HandleYouTube searches YouTube videos.
//
// HTTP: GET /api/youtube?q=...
func (h *SearchHandler) HandleYouTube(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	videos, err := h.client.YouTube(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"q": q, "videos": videos})
}

// HandleAISearch returns a plain-text summary of the top results.
//
// HTTP: POST /api/ai/search {"q"}
// Auth: Required
func (h *SearchHandler) HandleAISearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q string `json:"q"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.client.Summarize(r.Context(), req.Q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"q":        req.Q,
		"summary":  result.Summary,
		"videos":   result.Videos,
		"snippets": result.Snippets,
	})
}
