package ratelimiter

import (
	"math"
	"sync"
	"time"
)

// TokenBucket is one client's budget inside PerClient. It starts full, so a
// new client may burst up to capacity requests.
type TokenBucket struct {
	perSecond  float64
	burst      float64
	available  float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

var _ RateLimiter = (*TokenBucket)(nil)

func newTokenBucket(perSecond float64, burst int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		perSecond:  perSecond,
		burst:      float64(burst),
		available:  float64(burst),
		lastRefill: now(),
		now:        now,
	}
}

// Allow takes one token, refilling first for the time since the last call.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	t := tb.now()
	if since := t.Sub(tb.lastRefill); since > 0 {
		tb.available = math.Min(tb.burst, tb.available+since.Seconds()*tb.perSecond)
		tb.lastRefill = t
	}
	if tb.available < 1 {
		return false
	}
	tb.available--
	return true
}
