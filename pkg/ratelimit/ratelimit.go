// Package ratelimit throttles calls to the SendGrid API so that dashboards
// with many panels do not exhaust the account's request quota.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter implements a token bucket rate limiter
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter allowing rps requests per second with
// bursts of up to bucketSize. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, bucketSize int) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if bucketSize < 1 {
		bucketSize = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), bucketSize)}
}

// Wait blocks until a token is available or the context is cancelled
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Limit returns the configured requests per second.
func (rl *RateLimiter) Limit() float64 {
	return float64(rl.limiter.Limit())
}

// Burst returns the bucket size.
func (rl *RateLimiter) Burst() int {
	return rl.limiter.Burst()
}
