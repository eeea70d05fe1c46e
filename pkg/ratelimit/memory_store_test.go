package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

func newMemoryStore(t *testing.T) (*ratelimit.MemoryStore, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(
		ratelimit.WithCleanupInterval(0),
		ratelimit.WithStoreClock(clock.Now),
	)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestMemoryStore_IncrementAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, clock := newMemoryStore(t)

	count, ttl, err := store.IncrementAndGet(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	clock.Advance(20 * time.Second)

	count, ttl, err = store.IncrementAndGet(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 40*time.Second, ttl, "increments do not extend the window")

	clock.Advance(40 * time.Second)

	count, ttl, err = store.IncrementAndGet(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "window boundary starts over")
	assert.Equal(t, time.Minute, ttl)
}

func TestMemoryStore_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, clock := newMemoryStore(t)

	count, ttl, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, ttl)
	assert.Zero(t, store.Len(), "reads do not create entries")

	_, _, err = store.IncrementAndGet(ctx, "k", 4, time.Minute)
	require.NoError(t, err)

	count, ttl, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, time.Minute, ttl)

	clock.Advance(time.Minute)

	count, _, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newMemoryStore(t)

	_, _, err := store.IncrementAndGet(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	count, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, store.Len())

	count, _, err = store.IncrementAndGet(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, clock := newMemoryStore(t)

	_, _, err := store.IncrementAndGet(ctx, "short", 1, time.Minute)
	require.NoError(t, err)
	_, _, err = store.IncrementAndGet(ctx, "long", 1, time.Hour)
	require.NoError(t, err)
	_, _, err = store.RecordTimestamp(ctx, "log", clock.Now(), 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	assert.Zero(t, store.Cleanup())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 2, store.Len())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Cleanup())

	count, _, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newMemoryStore(t)

	const (
		keys    = 8
		workers = 16
		perKey  = 50
	)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perKey {
				key := fmt.Sprintf("key-%d", (w+i)%keys)
				_, _, err := store.IncrementAndGet(ctx, key, 1, time.Hour)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	var total int64
	for k := range keys {
		count, _, err := store.Get(ctx, fmt.Sprintf("key-%d", k))
		require.NoError(t, err)
		total += count
	}
	assert.Equal(t, int64(workers*perKey), total)
}

func TestMemoryStore_CleanupRacesWithWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := ratelimit.NewMemoryStore(
		ratelimit.WithCleanupInterval(0),
		ratelimit.WithStoreClock(clock.Now),
	)
	defer store.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		observed int64
	)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				count, _, err := store.IncrementAndGet(ctx, "hot", 1, time.Hour)
				assert.NoError(t, err)
				mu.Lock()
				observed = max(observed, count)
				mu.Unlock()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			store.Cleanup()
		}
	}()
	wg.Wait()

	count, _, err := store.Get(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(1600), count, "live entries are never purged")
	assert.Equal(t, int64(1600), observed)
}

func TestMemoryStore_BackgroundCleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(10 * time.Millisecond))
	defer store.Close()

	_, _, err := store.IncrementAndGet(ctx, "k", 1, 5*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
