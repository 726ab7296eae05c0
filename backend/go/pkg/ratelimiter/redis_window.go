package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisWindow is a fixed-window counter kept in Redis, so several service
// replicas share one budget per client.
type RedisWindow struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisWindow allows limit requests per key in every window.
func NewRedisWindow(client redis.Cmdable, prefix string, limit int, window time.Duration) (*RedisWindow, error) {
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid fixed window settings: limit=%d window=%v", limit, window)
	}
	return &RedisWindow{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}, nil
}

// Key returns the Redis key counting key's requests in the current window.
func (w *RedisWindow) Key(key string) string {
	slot := w.now().UnixNano() / int64(w.window)
	return fmt.Sprintf("%s:%s:%d", w.prefix, key, slot)
}

// Allow increments the window counter and reports whether it is within the limit.
func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	k := w.Key(key)

	var count *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, w.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis rate limit for %s: %w", key, err)
	}
	return count.Val() <= w.limit, nil
}
