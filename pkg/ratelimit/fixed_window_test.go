package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixedWindow(t *testing.T, threshold int, window time.Duration) (*ratelimit.FixedWindow, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(
		ratelimit.WithCleanupInterval(0),
		ratelimit.WithStoreClock(clock.Now),
	)
	t.Cleanup(func() { _ = store.Close() })

	limiter, err := ratelimit.NewFixedWindow(store, threshold, window, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	return limiter, clock
}

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))

	_, err := ratelimit.NewFixedWindow(nil, 10, time.Minute)
	assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)

	_, err = ratelimit.NewFixedWindow(store, 0, time.Minute)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidThreshold)

	_, err = ratelimit.NewFixedWindow(store, 10, 0)
	assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)

	fw, err := ratelimit.NewFixedWindow(store, 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10, fw.Threshold())
	assert.Equal(t, time.Minute, fw.Window())
}

func TestFixedWindow_ThresholdAndReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, clock := newFixedWindow(t, 10, 5*time.Minute)
	start := clock.Now()

	for i := 1; i <= 10; i++ {
		res, err := limiter.RecordFailure(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, i, res.Count)
		assert.False(t, res.Limited, "failure %d must not trip the limiter", i)
		clock.Advance(time.Second)
	}

	res, err := limiter.RecordFailure(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Limited)
	assert.Equal(t, 11, res.Count)
	assert.Equal(t, start.Add(5*time.Minute), res.ResetAt, "window is anchored to the first failure")
	assert.Equal(t, 5*time.Minute-10*time.Second, res.RetryAfter())

	status, err := limiter.Status(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, status.Limited)

	clock.Advance(5*time.Minute - 10*time.Second)

	status, err = limiter.Status(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, status.Limited, "window elapsed")
	assert.Zero(t, status.Count)

	res, err = limiter.RecordFailure(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count, "next failure opens a fresh window")
	assert.False(t, res.Limited)
}

func TestFixedWindow_StatusIsPure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newFixedWindow(t, 2, time.Minute)

	for range 5 {
		res, err := limiter.Status(ctx, "client")
		require.NoError(t, err)
		assert.False(t, res.Limited)
		assert.Zero(t, res.Count)
		assert.True(t, res.ResetAt.IsZero())
	}

	_, err := limiter.RecordFailure(ctx, "client")
	require.NoError(t, err)

	for range 5 {
		res, err := limiter.Status(ctx, "client")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Count)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newFixedWindow(t, 1, time.Minute)

	for range 2 {
		_, err := limiter.RecordFailure(ctx, "a")
		require.NoError(t, err)
	}

	a, err := limiter.Status(ctx, "a")
	require.NoError(t, err)
	b, err := limiter.Status(ctx, "b")
	require.NoError(t, err)

	assert.True(t, a.Limited)
	assert.False(t, b.Limited)
}

func TestFixedWindow_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newFixedWindow(t, 1, time.Minute)

	for range 3 {
		_, err := limiter.RecordFailure(ctx, "a")
		require.NoError(t, err)
	}
	require.NoError(t, limiter.Reset(ctx, "a"))

	res, err := limiter.Status(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Limited)
	assert.Zero(t, res.Count)
}

func TestFixedWindow_EmptyKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, _ := newFixedWindow(t, 1, time.Minute)

	_, err := limiter.RecordFailure(ctx, "")
	assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	_, err = limiter.Status(ctx, "")
	assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	assert.ErrorIs(t, limiter.Reset(ctx, ""), ratelimit.ErrKeyRequired)
}

func TestResult_RetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  *ratelimit.Result
		want int
	}{
		{name: "nil", res: nil, want: 0},
		{name: "not limited", res: &ratelimit.Result{TTL: time.Minute}, want: 0},
		{name: "full window", res: &ratelimit.Result{Limited: true, TTL: 5 * time.Minute}, want: 300},
		{name: "rounds up", res: &ratelimit.Result{Limited: true, TTL: 1500 * time.Millisecond}, want: 2},
		{name: "at least one second", res: &ratelimit.Result{Limited: true, TTL: time.Millisecond}, want: 1},
		{name: "expired ttl", res: &ratelimit.Result{Limited: true}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.res.RetryAfterSeconds())
		})
	}
}
