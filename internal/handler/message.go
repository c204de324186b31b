package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

// MessageHandler serves direct messaging. Every route requires auth — there
// is no anonymous view of anyone's mailbox.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// HandleSend sends a message from the caller.
//
// HTTP: POST /api/messages/send {"to","text"}
// Auth: Required
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	var req struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.messages.Send(r.Context(), username, req.To, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": msg})
}

// HandleThread returns the full thread between the caller and another user,
// oldest first. Opening the thread marks the caller's unread messages read.
//
// HTTP: GET /api/messages/{username}
// Auth: Required
func (h *MessageHandler) HandleThread(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UsernameFromContext(r.Context())
	other := chi.URLParam(r, "username")

	thread, err := h.messages.Thread(r.Context(), viewer, other)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

// HandleConversations returns the caller's conversation list, most recent
// first: one row per counterpart with a preview of the latest message.
//
// HTTP: GET /api/messages/conversations
// Auth: Required
func (h *MessageHandler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UsernameFromContext(r.Context())

	conversations, err := h.messages.Conversations(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}
