package calendar

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hivel/calendar-service/internal/provider"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// MaxPause caps how long a Retry-After can hold back callers.
	MaxPause          time.Duration
}

var DefaultRateLimit = RateLimitConfig{
	RequestsPerSecond: 5.0,
	BurstSize:         10,
	MaxPause:          provider.DefaultPolicy().Max,
}

// RateLimiter is a token bucket shared by every calendar API call of the
// process. A 429 with Retry-After pauses all callers until that instant.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	maxPause time.Duration
	retryAt  time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	if cfg.MaxPause <= 0 {
		cfg.MaxPause = DefaultRateLimit.MaxPause
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		maxPause: cfg.MaxPause,
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Observe inspects a call result and records a pause, at most MaxPause long,
// when the API answered 429 with a Retry-After header.
func (r *RateLimiter) Observe(err error) {
	pause, ok := provider.RetryAfter(err)
	if !ok {
		return
	}
	if pause > r.maxPause {
		pause = r.maxPause
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	until := time.Now().Add(pause)
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}
