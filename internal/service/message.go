package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/repository"
)

// lastMessagePreview caps the conversation-list preview text.
const lastMessagePreview = 50

// MessageService handles direct messaging: an append-only log plus the
// derived per-viewer conversations projection.
type MessageService struct {
	messages repository.MessageRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewMessageService creates a MessageService.
func NewMessageService(messages repository.MessageRepository, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		logger:   logger,
		now:      time.Now,
	}
}

// Send appends a message from the caller. Unread until the recipient opens
// the thread.
func (s *MessageService) Send(ctx context.Context, from, to, text string) (*model.Message, error) {
	if to == "" || text == "" {
		return nil, apperror.ValidationFailed("to", "to and text required")
	}

	messages, err := s.messages.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/message: loading messages: %w", err)
	}

	now := s.now().UnixMilli()
	msg := model.Message{
		ID:        now,
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: now,
		Read:      false,
	}
	messages = append(messages, msg)

	if err := s.messages.Replace(ctx, messages); err != nil {
		return nil, fmt.Errorf("service/message: saving messages: %w", err)
	}

	s.logger.Info("message sent",
		slog.String("from", from),
		slog.String("to", to),
	)
	return &msg, nil
}

// Thread returns every message between viewer and other, oldest first.
//
// SIDE EFFECT: opening a thread marks every message addressed to the viewer
// within it as read. The write-back only happens when at least one flag
// actually changed — re-reading a fully-read thread touches nothing.
func (s *MessageService) Thread(ctx context.Context, viewer, other string) ([]model.Message, error) {
	messages, err := s.messages.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/message: loading messages: %w", err)
	}

	var thread []model.Message
	changed := false
	for i := range messages {
		m := &messages[i]
		if (m.From == viewer && m.To == other) || (m.From == other && m.To == viewer) {
			if m.To == viewer && !m.Read {
				m.Read = true
				changed = true
			}
			thread = append(thread, *m)
		}
	}

	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].Timestamp < thread[j].Timestamp
	})

	if changed {
		if err := s.messages.Replace(ctx, messages); err != nil {
			return nil, fmt.Errorf("service/message: marking messages read: %w", err)
		}
	}

	if thread == nil {
		thread = []model.Message{}
	}
	return thread, nil
}

// Conversations builds the viewer's conversation list: one row per
// counterpart, carrying the most recent message between the pair. A row is
// unread when that latest message is addressed to the viewer and unread.
// Sorted most recent first.
func (s *MessageService) Conversations(ctx context.Context, viewer string) ([]model.Conversation, error) {
	messages, err := s.messages.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/message: loading messages: %w", err)
	}

	latest := map[string]model.Conversation{}
	for _, m := range messages {
		if m.From != viewer && m.To != viewer {
			continue
		}
		other := m.From
		if other == viewer {
			other = m.To
		}

		if existing, ok := latest[other]; ok && existing.Timestamp >= m.Timestamp {
			continue
		}
		latest[other] = model.Conversation{
			WithUser:    other,
			LastMessage: preview(m.Text),
			Timestamp:   m.Timestamp,
			Unread:      m.To == viewer && !m.Read,
		}
	}

	out := make([]model.Conversation, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

// preview truncates on rune boundaries so a multi-byte character is never
// cut in half.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > lastMessagePreview {
		return string(runes[:lastMessagePreview])
	}
	return text
}
