// Package ratelimit counts failures per client key and reports when a client
// has exceeded its allowance.
//
// FixedWindow is the default limiter: the window opens on the first failure
// and the count resets on the first failure after the window has elapsed.
// Once more than the threshold failures land inside one window the key is
// limited until the window ends. SlidingWindow implements the same Limiter
// interface with a moving window for callers that need smoother throttling.
//
// Two storage backends are provided. MemoryStore keeps counters in process
// behind per-key locks and purges expired entries on demand or on an
// interval. RedisStore shares counters between processes using atomic Lua
// scripts, with Redis key expiry doing the cleanup.
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimit.NewFixedWindow(store, 10, 5*time.Minute)
//	if err != nil {
//		return err
//	}
//
//	res, err := limiter.RecordFailure(ctx, clientIP)
//	if err == nil && res.Limited {
//		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
//	}
package ratelimit
