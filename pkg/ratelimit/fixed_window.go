package ratelimit

import (
	"context"
	"time"
)

// FixedWindow limits keys that record more than threshold failures within a
// window measured from the first failure. The count is not decremented over
// time: after the window has elapsed the next failure starts a new window at 1.
type FixedWindow struct {
	store     Store
	threshold int
	window    time.Duration
	now       func() time.Time
}

var _ Limiter = (*FixedWindow)(nil)

// NewFixedWindow creates a fixed window limiter. With threshold 10 the tenth
// failure is still tolerated and the eleventh trips the limiter.
func NewFixedWindow(store Store, threshold int, window time.Duration, opts ...Option) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	o := newLimiterOptions(opts)

	return &FixedWindow{
		store:     store,
		threshold: threshold,
		window:    window,
		now:       o.now,
	}, nil
}

// RecordFailure counts one failure for key.
func (fw *FixedWindow) RecordFailure(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, ttl, err := fw.store.IncrementAndGet(ctx, key, 1, fw.window)
	if err != nil {
		return nil, err
	}

	return fw.result(count, ttl), nil
}

// Status reports the state of key. It never opens or extends a window.
func (fw *FixedWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, ttl, err := fw.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return fw.result(count, ttl), nil
}

// Reset clears the window of key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, key)
}

// Threshold returns the number of failures tolerated per window.
func (fw *FixedWindow) Threshold() int { return fw.threshold }

// Window returns the window length.
func (fw *FixedWindow) Window() time.Duration { return fw.window }

func (fw *FixedWindow) result(count int64, ttl time.Duration) *Result {
	res := &Result{
		Count:     int(count),
		Threshold: fw.threshold,
	}
	if count <= 0 || ttl <= 0 {
		res.Count = 0
		return res
	}
	res.Limited = res.Count > fw.threshold
	res.TTL = ttl
	res.ResetAt = fw.now().Add(ttl)
	return res
}
