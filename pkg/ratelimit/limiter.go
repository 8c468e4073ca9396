package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
}

// New returns a limiter allowing requestsPerMinute downloads per minute.
// Zero or a negative value disables limiting.
func New(requestsPerMinute int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(requestsPerMinute, time.Minute)
}

// TokenBucket spreads capacity requests evenly over period, with a burst of
// up to capacity requests after an idle stretch.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(period/time.Duration(capacity)), capacity),
	}
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
