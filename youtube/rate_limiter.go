package youtube

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a simple fixed window limiter over one minute.
type RateLimiter struct {
	mu               sync.Mutex
	requestsPerMin   int
	windowStart      time.Time
	requestsInWindow int
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMin: requestsPerMinute,
		windowStart:    time.Now(),
	}
}

// Wait blocks until a request fits in the current window or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(rl.windowStart)
		if elapsed >= time.Minute {
			rl.windowStart = now
			rl.requestsInWindow = 0
			elapsed = 0
		}
		if rl.requestsInWindow < rl.requestsPerMin {
			rl.requestsInWindow++
			rl.mu.Unlock()
			return nil
		}
		sleep := time.Minute - elapsed
		rl.mu.Unlock()

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining returns remaining requests in the current window.
func (rl *RateLimiter) GetRemaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.windowStart) >= time.Minute {
		return rl.requestsPerMin
	}
	return rl.requestsPerMin - rl.requestsInWindow
}
