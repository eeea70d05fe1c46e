package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a key after a failure was recorded or its
// status was read.
type Result struct {
	// Limited reports whether the key has exceeded the threshold in the
	// current window.
	Limited bool

	// Count is the number of failures in the current window.
	Count int

	// Threshold is the number of failures tolerated per window.
	Threshold int

	// ResetAt is when the current window ends. Zero when no window is open.
	ResetAt time.Time

	// TTL is the time left in the current window, measured when the result
	// was produced.
	TTL time.Duration
}

// RetryAfter returns how long a limited client has to wait. Zero when the key
// is not limited.
func (r *Result) RetryAfter() time.Duration {
	if r == nil || !r.Limited || r.TTL <= 0 {
		return 0
	}
	return r.TTL
}

// RetryAfterSeconds is RetryAfter rounded up to whole seconds, at least 1 for
// a limited key. Suitable for the Retry-After header.
func (r *Result) RetryAfterSeconds() int {
	if r == nil || !r.Limited {
		return 0
	}
	d := r.RetryAfter()
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return max(secs, 1)
}

// Limiter tracks failures per key.
type Limiter interface {
	// RecordFailure counts one failure for key and returns the new state.
	RecordFailure(ctx context.Context, key string) (*Result, error)

	// Status returns the current state of key without changing it.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset forgets every failure recorded for key.
	Reset(ctx context.Context, key string) error
}

// Store is the counter backend of FixedWindow.
type Store interface {
	// IncrementAndGet atomically adds incr to the counter of key. A missing
	// or expired counter starts over at incr with a fresh window. Returns the
	// new value and the time left in the window.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)

	// Get returns the counter of key and the time left in its window, or
	// zeros when no live window exists.
	Get(ctx context.Context, key string) (current int64, ttl time.Duration, err error)

	// Delete removes every counter stored for key.
	Delete(ctx context.Context, key string) error
}

// SlidingWindowStore is the backend of SlidingWindow.
type SlidingWindowStore interface {
	Store

	// RecordTimestamp adds ts to the log of key, drops entries older than
	// window and returns the number of entries left along with the oldest.
	RecordTimestamp(ctx context.Context, key string, ts time.Time, window time.Duration) (count int64, oldest time.Time, err error)

	// CountInWindow returns the entries of key newer than now-window and the
	// oldest of them.
	CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (count int64, oldest time.Time, err error)
}

// Option configures a limiter.
type Option func(*limiterOptions)

type limiterOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used to compute ResetAt.
func WithClock(now func() time.Time) Option {
	return func(o *limiterOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func newLimiterOptions(opts []Option) limiterOptions {
	o := limiterOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
