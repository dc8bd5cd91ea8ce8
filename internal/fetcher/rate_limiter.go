package fetcher

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a fixed minimum gap between the completion of one request
// and the start of the next. The first request is never delayed.
type RateLimiter struct {
	delay    time.Duration
	lastDone time.Time
	mu       sync.Mutex

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Wait blocks until delay has elapsed since the last call to Done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lastDone.IsZero() || rl.delay <= 0 {
		return nil
	}

	remaining := rl.delay - rl.now().Sub(rl.lastDone)
	if remaining <= 0 {
		return nil
	}
	return rl.sleep(ctx, remaining)
}

// Done records that a request has completed, successfully or not.
func (rl *RateLimiter) Done() {
	rl.mu.Lock()
	rl.lastDone = rl.now()
	rl.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
