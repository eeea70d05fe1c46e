package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

func newRedisStore(t *testing.T) (*ratelimit.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := ratelimit.NewRedisStore(client, ratelimit.WithKeyPrefix("test"))
	require.NoError(t, err)
	return store, mr
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewRedisStore(nil)
	assert.ErrorIs(t, err, ratelimit.ErrClientRequired)
}

func TestRedisStore_FixedWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	limiter, err := ratelimit.NewFixedWindow(store, 10, 5*time.Minute)
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		res, err := limiter.RecordFailure(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.False(t, res.Limited, "failure %d", i)
		mr.FastForward(time.Second)
	}

	res, err := limiter.RecordFailure(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Limited)
	assert.Equal(t, 11, res.Count)
	assert.Equal(t, 5*time.Minute-10*time.Second, res.TTL, "window is anchored to the first failure")
	assert.Equal(t, 290, res.RetryAfterSeconds())

	assert.True(t, mr.Exists("test:fw:203.0.113.7"))

	mr.FastForward(5*time.Minute - 10*time.Second)
	assert.False(t, mr.Exists("test:fw:203.0.113.7"), "expiry is the cleanup")

	status, err := limiter.Status(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, status.Limited)

	res, err = limiter.RecordFailure(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.False(t, res.Limited)
}

func TestRedisStore_GetMissing(t *testing.T) {
	t.Parallel()

	store, _ := newRedisStore(t)

	count, ttl, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, ttl)
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, _, err := store.IncrementAndGet(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	_, _, err = store.RecordTimestamp(ctx, "k", time.Now(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:fw:k"))
	assert.False(t, mr.Exists("test:sw:k"))
}

func TestRedisStore_SlidingWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newRedisStore(t)

	start := time.UnixMilli(time.Now().UnixMilli())

	count, oldest, err := store.RecordTimestamp(ctx, "k", start, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, start, oldest)

	count, oldest, err = store.RecordTimestamp(ctx, "k", start.Add(30*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, start, oldest)

	count, oldest, err = store.CountInWindow(ctx, "k", start.Add(70*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, start.Add(30*time.Second), oldest)

	count, oldest, err = store.RecordTimestamp(ctx, "k", start.Add(70*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, start.Add(30*time.Second), oldest)
}
