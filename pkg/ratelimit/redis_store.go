package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// incrementScript opens the window on the first increment only, so the
	// window stays anchored to the first failure.
	incrementScript = redis.NewScript(`
		local current = redis.call('INCRBY', KEYS[1], ARGV[1])
		local ttl = redis.call('PTTL', KEYS[1])
		if ttl < 0 then
			redis.call('PEXPIRE', KEYS[1], ARGV[2])
			ttl = tonumber(ARGV[2])
		end
		return {current, ttl}
	`)

	recordScript = redis.NewScript(`
		local now = tonumber(ARGV[1])
		local window_ms = tonumber(ARGV[2])
		redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window_ms)
		redis.call('ZADD', KEYS[1], now, ARGV[3])
		redis.call('PEXPIRE', KEYS[1], window_ms)
		local count = redis.call('ZCARD', KEYS[1])
		local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
		return {count, tonumber(oldest[2])}
	`)
)

// RedisStore shares counters between processes. Keys expire with their
// window, so no cleanup is needed.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var (
	_ Store              = (*RedisStore)(nil)
	_ SlidingWindowStore = (*RedisStore)(nil)
)

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces every key. Default "ratelimit".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	s := &RedisStore{
		client: client,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *RedisStore) counterKey(key string) string {
	return s.prefix + ":fw:" + key
}

func (s *RedisStore) logKey(key string) string {
	return s.prefix + ":sw:" + key
}

// IncrementAndGet implements Store.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	reply, err := incrementScript.Run(ctx, s.client,
		[]string{s.counterKey(key)},
		incr, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: increment %q: %w", key, err)
	}
	if len(reply) != 2 {
		return 0, 0, ErrUnexpectedReply
	}

	return reply[0], time.Duration(reply[1]) * time.Millisecond, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	k := s.counterKey(key)

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("ratelimit: get %q: %w", key, err)
	}

	val, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: get %q: %w", key, err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, 0, errors.Join(ErrUnexpectedReply, err)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return 0, 0, nil
	}

	return count, ttl, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.counterKey(key), s.logKey(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: delete %q: %w", key, err)
	}
	return nil
}

// RecordTimestamp implements SlidingWindowStore.
func (s *RedisStore) RecordTimestamp(ctx context.Context, key string, ts time.Time, window time.Duration) (int64, time.Time, error) {
	reply, err := recordScript.Run(ctx, s.client,
		[]string{s.logKey(key)},
		ts.UnixMilli(), window.Milliseconds(), uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: record %q: %w", key, err)
	}
	if len(reply) != 2 {
		return 0, time.Time{}, ErrUnexpectedReply
	}

	return reply[0], time.UnixMilli(reply[1]), nil
}

// CountInWindow implements SlidingWindowStore.
func (s *RedisStore) CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, s.logKey(key), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now.Add(-window).UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: count %q: %w", key, err)
	}
	if len(entries) == 0 {
		return 0, time.Time{}, nil
	}

	return int64(len(entries)), time.UnixMilli(int64(entries[0].Score)), nil
}
