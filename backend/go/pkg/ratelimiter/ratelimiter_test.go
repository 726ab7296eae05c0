package ratelimiter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newTokenBucket(1, 2, func() time.Time { return now })

	if !tb.Allow() || !tb.Allow() {
		t.Fatalf("expected the first 2 requests to pass")
	}
	if tb.Allow() {
		t.Fatalf("expected the 3rd request to be limited")
	}

	now = now.Add(time.Second)
	if !tb.Allow() {
		t.Errorf("expected a token after 1s refill")
	}
}

func TestPerClient_IsolatesKeys(t *testing.T) {
	limiter, err := NewPerClient(0.001, 1, 100)
	if err != nil {
		t.Fatalf("NewPerClient() error = %v", err)
	}
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatalf("first request from client A should pass")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Errorf("second request from client A should be limited")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.2"); !ok {
		t.Errorf("client B should have its own bucket")
	}
}

func TestPerClient_DropsIdleBuckets(t *testing.T) {
	limiter, err := NewPerClient(1, 2, 100)
	if err != nil {
		t.Fatalf("NewPerClient() error = %v", err)
	}
	now := time.Unix(0, 0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = limiter.Allow(ctx, "10.0.0.1")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Fatalf("drained client should be limited")
	}
	_, _ = limiter.Allow(ctx, "10.0.0.2")

	// A client that keeps asking keeps its bucket.
	now = now.Add(1500 * time.Millisecond)
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatalf("expected refilled token after 1.5s")
	}
	if ok, _ := limiter.Allow(ctx, "10.0.0.1"); ok {
		t.Errorf("active client got a fresh bucket")
	}

	// 10.0.0.2 has now been idle past the 2s refill time.
	now = now.Add(time.Second)
	_, _ = limiter.Allow(ctx, "10.0.0.3")
	if n := limiter.buckets.Len(); n != 2 {
		t.Errorf("expected idle bucket to be dropped, %d buckets left", n)
	}
}

func TestRefillTime(t *testing.T) {
	if got := refillTime(0.5, 3); got != 6*time.Second {
		t.Errorf("refillTime(0.5, 3) = %v", got)
	}
	if got := refillTime(1e-12, 10); got != 0 {
		t.Errorf("expected no expiry for an unrepresentable refill time, got %v", got)
	}
}

func TestNewPerClient_Invalid(t *testing.T) {
	if _, err := NewPerClient(0, 1, 10); err == nil {
		t.Errorf("expected error for zero rate")
	}
	if _, err := NewPerClient(1, 1, 0); err == nil {
		t.Errorf("expected error for zero client table")
	}
}

func TestRedisWindow_KeyChangesPerWindow(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	w, err := NewRedisWindow(client, "facts:rl", 5, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisWindow() error = %v", err)
	}
	now := time.Unix(120, 0)
	w.now = func() time.Time { return now }
	first := w.Key("1.2.3.4")
	now = now.Add(time.Minute)
	if second := w.Key("1.2.3.4"); second == first {
		t.Errorf("expected a new key in the next window, both were %s", first)
	}
}

// Runs only when a Redis server is available, e.g. REDIS_ADDR=localhost:6379.
func TestRedisWindow_Allow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	w, err := NewRedisWindow(client, "facts:test:"+uuid.NewString(), 2, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisWindow() error = %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := w.Allow(ctx, "client")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := w.Allow(ctx, "client"); ok {
		t.Errorf("3rd request in the window should be limited")
	}
}
