package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/model"
)

type mockMessageRepo struct {
	messages []model.Message
}

func (m *mockMessageRepo) Load(context.Context) ([]model.Message, error) {
	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *mockMessageRepo) Replace(_ context.Context, messages []model.Message) error {
	m.messages = messages
	return nil
}

func newTestMessageService(t *testing.T) (*MessageService, *mockMessageRepo) {
	t.Helper()
	repo := &mockMessageRepo{}
	svc := NewMessageService(repo, testLogger())
	svc.now = fakeClock(1_700_000_000_000)
	return svc, repo
}

// =========================================================================
// SEND TESTS
// =========================================================================

func TestSend_Success(t *testing.T) {
	svc, repo := newTestMessageService(t)

	msg, err := svc.Send(context.Background(), "alice", "bob", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if msg.From != "alice" || msg.To != "bob" {
		t.Errorf("message routed %s→%s, want alice→bob", msg.From, msg.To)
	}
	if msg.Read {
		t.Error("a fresh message must start unread")
	}
	if len(repo.messages) != 1 {
		t.Errorf("stored %d messages, want 1", len(repo.messages))
	}
}

func TestSend_Validation(t *testing.T) {
	svc, _ := newTestMessageService(t)

	if _, err := svc.Send(context.Background(), "alice", "", "hello"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing to: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Send(context.Background(), "alice", "bob", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing text: error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// THREAD TESTS
// =========================================================================

func TestThread_FiltersToThePair(t *testing.T) {
	svc, _ := newTestMessageService(t)

	svc.Send(context.Background(), "alice", "bob", "to bob")
	svc.Send(context.Background(), "bob", "alice", "to alice")
	svc.Send(context.Background(), "alice", "carol", "to carol")

	thread, err := svc.Thread(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread has %d messages, want 2 (carol's excluded)", len(thread))
	}
	// Oldest first
	if thread[0].Text != "to bob" || thread[1].Text != "to alice" {
		t.Errorf("thread order = [%q, %q], want oldest first", thread[0].Text, thread[1].Text)
	}
}

func TestThread_MarksViewerMessagesRead(t *testing.T) {
	svc, repo := newTestMessageService(t)

	svc.Send(context.Background(), "alice", "bob", "one")
	svc.Send(context.Background(), "alice", "bob", "two")
	svc.Send(context.Background(), "bob", "alice", "reply")

	// Bob opens the thread: alice→bob messages flip to read,
	// bob's own outgoing message is untouched.
	if _, err := svc.Thread(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("Thread() error = %v", err)
	}

	for _, m := range repo.messages {
		if m.To == "bob" && !m.Read {
			t.Errorf("message %q to bob still unread after bob opened the thread", m.Text)
		}
		if m.To == "alice" && m.Read {
			t.Errorf("message %q to alice was marked read by BOB's view", m.Text)
		}
	}
}

func TestThread_EmptyIsNotNil(t *testing.T) {
	svc, _ := newTestMessageService(t)

	thread, err := svc.Thread(context.Background(), "alice", "stranger")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if thread == nil {
		t.Error("an empty thread must serialize as [], not null")
	}
}

// =========================================================================
// CONVERSATIONS TESTS
// =========================================================================

func TestConversations_OneRowPerCounterpart(t *testing.T) {
	svc, _ := newTestMessageService(t)

	svc.Send(context.Background(), "alice", "bob", "first to bob")
	svc.Send(context.Background(), "bob", "alice", "bob answers")
	svc.Send(context.Background(), "carol", "alice", "hi from carol")

	convs, err := svc.Conversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2 (bob and carol)", len(convs))
	}

	// Sorted most recent first: carol's message was last.
	if convs[0].WithUser != "carol" {
		t.Errorf("convs[0].WithUser = %q, want %q (most recent first)", convs[0].WithUser, "carol")
	}
	// Bob's row carries the LATEST message of the pair.
	if convs[1].LastMessage != "bob answers" {
		t.Errorf("bob row preview = %q, want the latest message", convs[1].LastMessage)
	}
}

func TestConversations_UnreadFlag(t *testing.T) {
	svc, _ := newTestMessageService(t)

	svc.Send(context.Background(), "bob", "alice", "unread ping")

	convs, _ := svc.Conversations(context.Background(), "alice")
	if len(convs) != 1 || !convs[0].Unread {
		t.Fatalf("convs = %+v, want one unread row", convs)
	}

	// Opening the thread clears it.
	svc.Thread(context.Background(), "alice", "bob")

	convs, _ = svc.Conversations(context.Background(), "alice")
	if convs[0].Unread {
		t.Error("row still unread after the thread was opened")
	}
}

func TestConversations_PreviewTruncatedTo50(t *testing.T) {
	svc, _ := newTestMessageService(t)

	long := strings.Repeat("x", 80)
	svc.Send(context.Background(), "bob", "alice", long)

	convs, _ := svc.Conversations(context.Background(), "alice")
	if got := len(convs[0].LastMessage); got != lastMessagePreview {
		t.Errorf("preview length = %d, want %d", got, lastMessagePreview)
	}
}

func TestConversations_PreviewKeepsRuneBoundaries(t *testing.T) {
	svc, _ := newTestMessageService(t)

	// 80 two-byte runes: a byte-indexed cut at 50 would land mid-rune.
	long := strings.Repeat("ż", 80)
	svc.Send(context.Background(), "bob", "alice", long)

	convs, _ := svc.Conversations(context.Background(), "alice")
	got := convs[0].LastMessage
	if !utf8.ValidString(got) {
		t.Errorf("preview is not valid UTF-8: %q", got)
	}
	if n := len([]rune(got)); n != lastMessagePreview {
		t.Errorf("preview rune count = %d, want %d", n, lastMessagePreview)
	}
}

func TestConversations_IgnoresOtherPeoplesTraffic(t *testing.T) {
	svc, _ := newTestMessageService(t)

	svc.Send(context.Background(), "bob", "carol", "not alice's business")

	convs, _ := svc.Conversations(context.Background(), "alice")
	if len(convs) != 0 {
		t.Errorf("got %d conversations, want 0", len(convs))
	}
}
