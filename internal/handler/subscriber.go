package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

// SubscriberHandler serves the SMS subscription list and the broadcast.
type SubscriberHandler struct {
	subscribers *service.SubscriberService
	logger      *slog.Logger
}

// NewSubscriberHandler creates a SubscriberHandler.
func NewSubscriberHandler(subscribers *service.SubscriberService, logger *slog.Logger) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers, logger: logger}
}

// HandleSubscribe registers the caller's phone number for SMS broadcasts.
// A duplicate (same user or same phone) is not an error — the response just
// carries note:"already".
//
// HTTP: POST /api/subscribe {"phone"}
// Auth: Required
func (h *SubscriberHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	already, err := h.subscribers.Subscribe(r.Context(), username, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string]interface{}{"ok": true}
	if already {
		out["note"] = "already"
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleList returns every subscriber.
//
// HTTP: GET /api/subscribers
// Auth: Required
func (h *SubscriberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscribers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// HandleBroadcast fans the message out to every subscriber and reports the
// per-recipient outcome. Partial failure is a 200 — the results array says
// which phones got the message.
//
// HTTP: POST /api/sms/send {"message"}
// Auth: Required
func (h *SubscriberHandler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.subscribers.Broadcast(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"count":   len(results),
		"results": results,
	})
}
