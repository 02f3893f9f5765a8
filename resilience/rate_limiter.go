package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a call exceeds the limiter's rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Name identifies this limiter for logging.
	Name string
	// Rate is the number of calls allowed per second.
	Rate float64
	// Burst is the bucket size.
	Burst int
	// MaxWait is how long Wait may block for a token. 0 means no waiting.
	MaxWait time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:  name,
		Rate:  100,
		Burst: 20,
	}
}

// RateLimiter throttles calls with a token bucket.
type RateLimiter struct {
	config  RateLimiterConfig
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = max(1, int(config.Rate))
	}
	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow reports whether a call may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait takes a token, blocking up to MaxWait. Without MaxWait it does not
// block and returns ErrRateLimited when the bucket is empty.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.config.MaxWait <= 0 {
		if r.limiter.Allow() {
			return nil
		}
		return ErrRateLimited
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.config.MaxWait)
	defer cancel()
	if err := r.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRateLimited
	}
	return nil
}

// Execute runs fn once a token is available per Wait.
func (r *RateLimiter) Execute(ctx context.Context, fn func() error) error {
	if err := r.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// Tokens returns the number of tokens currently available.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
