package audit

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Criteria filters events returned by MemoryStorage.Query. Zero fields match
// everything.
type Criteria struct {
	Action     string
	ActorID    string
	ResourceID string
	Result     Result
	Since      time.Time
	Limit      int
}

// MemoryStorage keeps events in memory in insertion order.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

var _ BatchStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Events returns a copy of every stored event.
func (s *MemoryStorage) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Query returns the events matching c, oldest first.
func (s *MemoryStorage) Query(_ context.Context, c Criteria) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		switch {
		case c.Action != "" && e.Action != c.Action:
			continue
		case c.ActorID != "" && e.ActorID != c.ActorID:
			continue
		case c.ResourceID != "" && e.ResourceID != c.ResourceID:
			continue
		case c.Result != "" && e.Result != c.Result:
			continue
		case !c.Since.IsZero() && e.CreatedAt.Before(c.Since):
			continue
		}
		out = append(out, e)
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}
