package fetch

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum delay between consecutive outbound requests.
// The catalog endpoints are shared university infrastructure; a small fixed
// gap keeps the bot a polite client without a full token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	next     time.Time
}

// NewRateLimiter creates a rate limiter with the given minimum delay.
// A zero or negative delay disables limiting.
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	return &RateLimiter{minDelay: minDelay}
}

// Wait blocks until the caller may proceed, or until the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.minDelay <= 0 {
		return nil
	}

	r.mu.Lock()
	now := time.Now()
	wait := r.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	r.next = now.Add(wait + r.minDelay)
	r.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return Sleep(ctx, wait)
}
