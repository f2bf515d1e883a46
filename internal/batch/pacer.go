package batch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces the inter-request delay the search API's rate limit
// demands. The first acquisition passes immediately; each subsequent one
// waits until the configured interval has elapsed. Swapping the policy
// (e.g. for exponential backoff) only touches this type.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a fixed-interval pacer. A non-positive interval
// disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request slot is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
