//
//
package eventlog

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the log in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore creates an empty in-memory log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append appends event.
func (m *MemoryStore) Append(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// ReadUntil returns a copy of the events at or before until.
func (m *MemoryStore) ReadUntil(ctx context.Context, until time.Time) ([]Event, error) {
	m.mu.RLock()
	events := make([]Event, len(m.events))
	copy(events, m.events)
	m.mu.RUnlock()
	return filterUntil(events, until), nil
}

// Len returns the number of stored events.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
