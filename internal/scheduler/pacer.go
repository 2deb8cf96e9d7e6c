package scheduler

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces upstream calls at a fixed interval plus a random jitter.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// NewPacer returns a pacer that allows one call per interval. A non-positive
// interval disables pacing.
func NewPacer(interval, jitter time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1), jitter: jitter}
}

// Wait blocks until the next call may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(rand.Int63n(int64(p.jitter) + 1)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
