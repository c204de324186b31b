package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/repository"
	"github.com/mkowalczyk/dsn-service/internal/sms"
)

// SendResult is the per-recipient outcome of a broadcast.
type SendResult struct {
	Phone  string `json:"phone"`
	Status string `json:"status"` // "sent" or "error"
}

// SubscriberService manages the SMS subscriber list and the fan-out.
type SubscriberService struct {
	subscribers repository.SubscriberRepository
	sender      sms.Sender
	logger      *slog.Logger
	now         func() time.Time
}

// NewSubscriberService creates a SubscriberService.
func NewSubscriberService(subscribers repository.SubscriberRepository, sender sms.Sender, logger *slog.Logger) *SubscriberService {
	return &SubscriberService{
		subscribers: subscribers,
		sender:      sender,
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe registers the caller's phone number. Duplicates — same username
// OR same phone — are answered with already=true and nothing is inserted,
// which keeps both uniqueness rules without a stored constraint.
func (s *SubscriberService) Subscribe(ctx context.Context, username, phone string) (already bool, err error) {
	if phone == "" {
		return false, apperror.ValidationFailed("phone", "phone required")
	}

	subs, err := s.subscribers.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("service/subscriber: loading subscribers: %w", err)
	}

	for _, sub := range subs {
		if sub.Username == username || sub.Phone == phone {
			return true, nil
		}
	}

	subs = append(subs, model.Subscriber{
		ID:       s.now().UnixMilli(),
		Username: username,
		Phone:    phone,
	})

	if err := s.subscribers.Replace(ctx, subs); err != nil {
		return false, fmt.Errorf("service/subscriber: saving subscribers: %w", err)
	}

	s.logger.Info("subscriber added", slog.String("username", username))
	return false, nil
}

// List returns all subscribers.
func (s *SubscriberService) List(ctx context.Context) ([]model.Subscriber, error) {
	subs, err := s.subscribers.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/subscriber: loading subscribers: %w", err)
	}
	if subs == nil {
		subs = []model.Subscriber{}
	}
	return subs, nil
}

// Broadcast sends the message to every subscriber, one at a time. A failed
// send is recorded per recipient and never aborts the loop — the response
// tells the caller exactly which phones got the message.
func (s *SubscriberService) Broadcast(ctx context.Context, message string) ([]SendResult, error) {
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message required")
	}

	subs, err := s.subscribers.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/subscriber: loading subscribers: %w", err)
	}

	results := make([]SendResult, 0, len(subs))
	for _, sub := range subs {
		if err := s.sender.Send(ctx, sub.Phone, message); err != nil {
			s.logger.Error("sms send failed",
				slog.String("phone", sub.Phone),
				slog.String("error", err.Error()),
			)
			results = append(results, SendResult{Phone: sub.Phone, Status: "error"})
			continue
		}
		results = append(results, SendResult{Phone: sub.Phone, Status: "sent"})
	}
	return results, nil
}
