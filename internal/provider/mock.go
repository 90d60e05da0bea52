// internal/provider/mock.go
package provider

import (
	"fmt"
	"sync"
)

// MockSender is the in-process stand-in used in tests and local dev. It
// records every batch and can be told to fail a particular call.
type MockSender struct {
	mu        sync.Mutex
	Batches   [][]Message
	BatchSize int
	// FailOnCall makes the nth SendBatch call (1-based) return an error.
	// Zero disables failure injection.
	FailOnCall int

	calls int
}

func NewMockSender() *MockSender {
	return &MockSender{BatchSize: 100}
}

func (m *MockSender) MaxBatchSize() int { return m.BatchSize }

func (m *MockSender) SendBatch(msgs []Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.FailOnCall != 0 && m.calls == m.FailOnCall {
		return fmt.Errorf("mock provider failure on call %d", m.calls)
	}
	if len(msgs) > m.BatchSize {
		return fmt.Errorf("batch of %d exceeds limit %d", len(msgs), m.BatchSize)
	}

	batch := make([]Message, len(msgs))
	copy(batch, msgs)
	m.Batches = append(m.Batches, batch)
	return nil
}

// Sent returns every message across all recorded batches.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []Message
	for _, b := range m.Batches {
		all = append(all, b...)
	}
	return all
}

var _ Sender = (*MockSender)(nil)
