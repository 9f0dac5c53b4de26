package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.Email
}

func (m *recordingMailer) Send(_ context.Context, mail ports.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *recordingMailer) waitFor(t *testing.T, n int) []ports.Email {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.sent) >= n {
			out := append([]ports.Email(nil), m.sent...)
			m.mu.Unlock()
			return out
		}
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d mails", n)
	return nil
}

func TestDispatcher_DeliversAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := &recordingMailer{}
	d := NewDispatcher(3, mailer, zerolog.Nop())
	d.Start(ctx)

	for i := 0; i < 20; i++ {
		d.Enqueue(ports.Email{To: "a@example.com", Subject: "s", Body: "b"})
	}
	sent := mailer.waitFor(t, 20)
	if len(sent) != 20 {
		t.Fatalf("expected 20 deliveries, got %d", len(sent))
	}
}

func TestDispatcher_SameRecipientInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := &recordingMailer{}
	d := NewDispatcher(4, mailer, zerolog.Nop())
	d.Start(ctx)

	subjects := []string{"first", "second", "third", "fourth"}
	for _, s := range subjects {
		d.Enqueue(ports.Email{To: "ordered@example.com", Subject: s})
	}

	sent := mailer.waitFor(t, len(subjects))
	for i, s := range subjects {
		if sent[i].Subject != s {
			t.Fatalf("out of order at %d: got %q want %q", i, sent[i].Subject, s)
		}
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &recordingMailer{}, zerolog.Nop())
	first := d.shardIndex("someone@example.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("someone@example.com"); got != first {
			t.Fatalf("shard index not stable: %d vs %d", got, first)
		}
	}
}
