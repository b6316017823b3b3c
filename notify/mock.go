package notify

import (
	"context"
	"sync"
)

// SentMessage records one Send call on the Mock.
type SentMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mock is an in-memory Notifier for tests. Set Err to make every Send fail.
type Mock struct {
	mu   sync.Mutex
	sent []SentMessage

	Err error
}

var _ Notifier = (*Mock)(nil)

// NewMock returns an empty mock notifier.
func NewMock() *Mock {
	return &Mock{}
}

// Send implements Notifier.
func (m *Mock) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMessage{To: to, Subject: subject, HTMLBody: htmlBody})
	return nil
}

// Sent returns a copy of all recorded messages.
func (m *Mock) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent message, or nil when nothing was sent.
func (m *Mock) Last() *SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	msg := m.sent[len(m.sent)-1]
	return &msg
}
