package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in process. Every key has its own lock, so
// unrelated keys never contend. Expired entries are purged by Cleanup, which
// also runs on a background interval until Close is called.
type MemoryStore struct {
	entries sync.Map // string -> *memoryEntry

	now             func() time.Time
	cleanupInterval time.Duration
	initialCapacity int
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

type memoryEntry struct {
	mu sync.Mutex

	// fixed window counter
	count     int64
	expiresAt time.Time

	// sliding window log, oldest first
	timestamps []time.Time
	logWindow  time.Duration

	// dead entries were removed from the map; holders must retry
	dead bool
}

var (
	_ Store              = (*MemoryStore)(nil)
	_ SlidingWindowStore = (*MemoryStore)(nil)
)

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired entries are purged in the
// background. Zero disables the background loop, leaving Cleanup to the caller.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval >= 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithInitialCapacity sets the initial capacity of sliding window logs.
func WithInitialCapacity(capacity int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.initialCapacity = capacity
		}
	}
}

// WithStoreClock overrides the time source. Tests use it to move through
// windows without sleeping.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store. By default expired entries are
// purged every minute.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		now:             time.Now,
		cleanupInterval: time.Minute,
		initialCapacity: 16,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// lock returns the live entry for key with its mutex held, creating it when
// missing.
func (s *MemoryStore) lock(key string) *memoryEntry {
	for {
		v, ok := s.entries.Load(key)
		if !ok {
			v, _ = s.entries.LoadOrStore(key, &memoryEntry{})
		}
		e := v.(*memoryEntry)
		e.mu.Lock()
		if !e.dead {
			return e
		}
		e.mu.Unlock()
		s.entries.CompareAndDelete(key, e)
	}
}

// peek returns the live entry for key with its mutex held, or nil.
func (s *MemoryStore) peek(key string) *memoryEntry {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil
	}
	e := v.(*memoryEntry)
	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil
	}
	return e
}

// IncrementAndGet implements Store.
func (s *MemoryStore) IncrementAndGet(_ context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	e := s.lock(key)
	defer e.mu.Unlock()

	now := s.now()
	if e.expiresAt.IsZero() || !now.Before(e.expiresAt) {
		e.count = int64(incr)
		e.expiresAt = now.Add(window)
		return e.count, window, nil
	}

	e.count += int64(incr)
	return e.count, e.expiresAt.Sub(now), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, time.Duration, error) {
	e := s.peek(key)
	if e == nil {
		return 0, 0, nil
	}
	defer e.mu.Unlock()

	now := s.now()
	if e.expiresAt.IsZero() || !now.Before(e.expiresAt) {
		return 0, 0, nil
	}
	return e.count, e.expiresAt.Sub(now), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	e := s.peek(key)
	if e == nil {
		return nil
	}
	e.dead = true
	s.entries.CompareAndDelete(key, e)
	e.mu.Unlock()
	return nil
}

// RecordTimestamp implements SlidingWindowStore.
func (s *MemoryStore) RecordTimestamp(_ context.Context, key string, ts time.Time, window time.Duration) (int64, time.Time, error) {
	e := s.lock(key)
	defer e.mu.Unlock()

	if e.timestamps == nil {
		e.timestamps = make([]time.Time, 0, s.initialCapacity)
	}
	e.timestamps = pruneBefore(e.timestamps, ts.Add(-window))
	e.timestamps = append(e.timestamps, ts)
	e.logWindow = window

	return int64(len(e.timestamps)), e.timestamps[0], nil
}

// CountInWindow implements SlidingWindowStore. It does not modify the log.
func (s *MemoryStore) CountInWindow(_ context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	e := s.peek(key)
	if e == nil {
		return 0, time.Time{}, nil
	}
	defer e.mu.Unlock()

	cutoff := now.Add(-window)
	var (
		count  int64
		oldest time.Time
	)
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			if count == 0 {
				oldest = ts
			}
			count++
		}
	}
	return count, oldest, nil
}

// Cleanup removes every entry whose windows have fully expired and returns
// how many were removed. It is safe to call concurrently with other methods.
func (s *MemoryStore) Cleanup() int {
	now := s.now()
	removed := 0

	s.entries.Range(func(k, v any) bool {
		e := v.(*memoryEntry)
		e.mu.Lock()
		if !e.dead && e.expired(now) {
			e.dead = true
			s.entries.CompareAndDelete(k, e)
			removed++
		}
		e.mu.Unlock()
		return true
	})

	return removed
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the background cleanup.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (e *memoryEntry) expired(now time.Time) bool {
	if !e.expiresAt.IsZero() && now.Before(e.expiresAt) {
		return false
	}
	if n := len(e.timestamps); n > 0 && e.timestamps[n-1].Add(e.logWindow).After(now) {
		return false
	}
	return true
}

// pruneBefore drops timestamps at or before cutoff. ts is sorted oldest first.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
