package ratelimit

import (
	"context"
	"time"
)

// SlidingWindow limits keys that record more than threshold failures within
// any window-long interval ending now. It stores one timestamp per failure,
// which costs more memory than FixedWindow but has no burst at the boundary.
type SlidingWindow struct {
	store     SlidingWindowStore
	threshold int
	window    time.Duration
	now       func() time.Time
}

var _ Limiter = (*SlidingWindow)(nil)

// NewSlidingWindow creates a sliding window limiter.
func NewSlidingWindow(store SlidingWindowStore, threshold int, window time.Duration, opts ...Option) (*SlidingWindow, error) {
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

	return &SlidingWindow{
		store:     store,
		threshold: threshold,
		window:    window,
		now:       o.now,
	}, nil
}

// RecordFailure logs one failure for key.
func (sw *SlidingWindow) RecordFailure(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	count, oldest, err := sw.store.RecordTimestamp(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}

	return sw.result(now, count, oldest), nil
}

// Status reports the state of key without logging anything.
func (sw *SlidingWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := sw.now()
	count, oldest, err := sw.store.CountInWindow(ctx, key, now, sw.window)
	if err != nil {
		return nil, err
	}

	return sw.result(now, count, oldest), nil
}

// Reset clears the log of key.
func (sw *SlidingWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return sw.store.Delete(ctx, key)
}

func (sw *SlidingWindow) result(now time.Time, count int64, oldest time.Time) *Result {
	res := &Result{
		Count:     int(count),
		Threshold: sw.threshold,
	}
	if count <= 0 || oldest.IsZero() {
		res.Count = 0
		return res
	}
	// the oldest entry leaving the window is the earliest the count can drop
	res.ResetAt = oldest.Add(sw.window)
	res.TTL = max(res.ResetAt.Sub(now), 0)
	res.Limited = res.Count > sw.threshold
	return res
}
