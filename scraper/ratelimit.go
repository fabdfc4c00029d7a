package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests with an adaptive delay. Throttling signals grow
// the delay multiplicatively up to a cap; a clean success snaps it back to
// the base so transient throttling does not permanently slow the run.
//
// One instance is shared by every fetch within a single harvester run (not
// process-wide), so concurrent runs against independent sites do not
// cross-throttle. Safe for concurrent use.
type RateLimiter struct {
	mu      sync.Mutex
	base    time.Duration
	current time.Duration
	max     time.Duration
	factor  float64
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter starting at base delay. factor must be >1;
// values <=1 are coerced to 2.
func NewRateLimiter(base, max time.Duration, factor float64) *RateLimiter {
	if base <= 0 {
		base = time.Millisecond
	}
	if max < base {
		max = base
	}
	if factor <= 1 {
		factor = 2
	}
	return &RateLimiter{
		base:    base,
		current: base,
		max:     max,
		factor:  factor,
		limiter: rate.NewLimiter(rate.Every(base), 1),
	}
}

// Wait blocks until the pacing interval allows another request, or returns
// early with the context's error.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	l := rl.limiter
	rl.mu.Unlock()
	return l.Wait(ctx)
}

// IncreaseDelay grows the current delay by the backoff factor, capped at the
// maximum. Called on every throttling signal.
func (rl *RateLimiter) IncreaseDelay() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	next := time.Duration(float64(rl.current) * rl.factor)
	if next > rl.max {
		next = rl.max
	}
	rl.current = next
	rl.limiter.SetLimit(rate.Every(next))
}

// ResetDelay restores the base delay after a clean success.
func (rl *RateLimiter) ResetDelay() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.current = rl.base
	rl.limiter.SetLimit(rate.Every(rl.base))
}

// CurrentDelay returns the delay currently applied between requests.
func (rl *RateLimiter) CurrentDelay() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.current
}

// BaseDelay returns the configured base delay.
func (rl *RateLimiter) BaseDelay() time.Duration {
	return rl.base
}
