// Package sms sends text messages to subscribers.
//
// The Sender interface keeps the subscriber service ignorant of Twilio:
// in production it gets the Twilio-backed sender, in tests a recording fake,
// and when no Twilio credentials are configured a log-only sender that
// pretends every send succeeded (useful for local development — the
// original behaved the same way).
package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers one SMS. Implementations must be safe for sequential use
// from a single request; the fan-out loop never sends concurrently.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender sends through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a TwilioSender with account-SID/auth-token
// credentials and a sending number.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

// Send creates one outbound message. Twilio queues the delivery; an error
// here means the API rejected the request, not that the phone is off.
func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms: twilio send to %s: %w", to, err)
	}
	return nil
}

// LogSender logs instead of sending. Used when TWILIO_SID/TOKEN/FROM are
// not configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the would-be message and reports success.
func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("SMS mock",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}
