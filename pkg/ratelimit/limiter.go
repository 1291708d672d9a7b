package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Pacer spaces requests evenly over a minute with a small burst allowance.
// It keeps the adapter under the remote quota so the pager's cool-down is
// the exception rather than the rhythm.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerMinute with the given burst.
// A non-positive rate disables pacing.
func NewPacer(requestsPerMinute, burst int) *Pacer {
	if requestsPerMinute <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
