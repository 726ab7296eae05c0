package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"country_facts/backend/go/pkg/util"
)

// PerClient keeps one in-memory token bucket per key. Buckets live in a
// bounded LRU so a flood of distinct clients cannot grow memory without limit;
// an evicted client simply starts again with a full bucket. A bucket idle for
// longer than it takes to refill completely is dropped, since a fresh bucket
// would be in the same state.
type PerClient struct {
	rate     float64
	capacity int
	buckets  *util.LRUCache[string, *TokenBucket]
	now      func() time.Time
}

// NewPerClient creates a keyed token-bucket limiter tracking at most maxClients keys.
func NewPerClient(rate float64, capacity, maxClients int) (*PerClient, error) {
	if rate <= 0 || capacity <= 0 {
		return nil, fmt.Errorf("invalid token bucket settings: rate=%v capacity=%d", rate, capacity)
	}
	p := &PerClient{rate: rate, capacity: capacity, now: time.Now}
	buckets, err := util.NewLRU[string, *TokenBucket](util.CacheConfig{
		Capacity: maxClients,
		TTL:      refillTime(rate, capacity),
		Clock:    func() time.Time { return p.now() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client table: %w", err)
	}
	p.buckets = buckets
	return p, nil
}

// refillTime is how long an empty bucket takes to fill, rounded up. Zero
// (no expiry) when that does not fit in a Duration.
func refillTime(rate float64, capacity int) time.Duration {
	d := math.Ceil(float64(capacity) / rate * float64(time.Second))
	if d >= math.MaxInt64 {
		return 0
	}
	return time.Duration(d)
}

// Allow consumes a token from key's bucket. It never returns an error.
func (p *PerClient) Allow(_ context.Context, key string) (bool, error) {
	bucket := p.buckets.GetOrCreate(key, func() *TokenBucket {
		return newTokenBucket(p.rate, p.capacity, p.now)
	})
	return bucket.Allow(), nil
}
