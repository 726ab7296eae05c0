package ratelimiter

import "context"

// RateLimiter limits a single stream of requests.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// KeyedLimiter limits requests independently per key, typically a client IP.
type KeyedLimiter interface {
	// Allow reports whether a request for key may proceed. A non-nil error means
	// the limiter's backing store failed; callers decide whether to fail open.
	Allow(ctx context.Context, key string) (bool, error)
}
