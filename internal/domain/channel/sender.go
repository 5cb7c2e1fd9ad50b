package channel

import (
	"context"
	"sync"
)

// Message is one rendered message bound for a single destination. For the
// email channel Destination is an address; for the chat channel it is the
// platform chat id in string form.
type Message struct {
	Destination string
	Subject     string
	Body        string
}

// Sender is the abstract channel capability. Implementations (email
// provider, chat provider, no-op) are swapped by configuration, never by
// conditional branching inside the dispatcher. A Sender is called at most
// once per dispatch record transition; on error the record goes to failed
// and the engine never retries on its own.
type Sender interface {
	// Send hands the message to the provider and returns a provider message
	// reference when one is available.
	Send(ctx context.Context, msg Message) (providerRef string, err error)
}

// NoopSender accepts every message without any external call. Used in dry
// runs and tests.
type NoopSender struct {
	mu   sync.Mutex
	sent []Message
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return "noop", nil
}

// Sent returns a copy of everything accepted so far.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
