package campaign

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive mutating service calls. Batches run sequentially
// on purpose (bounded at 1000 items, predictable wall-clock time); the pacer
// is the backpressure mechanism that keeps a run under the external services'
// throttling thresholds.
type Pacer interface {
	// Wait blocks until the next call may proceed or the context ends.
	Wait(ctx context.Context) error
}

type ratePacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a token-bucket pacer allowing one call per interval, with
// the first call passing immediately.
func NewPacer(interval time.Duration) Pacer {
	return &ratePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer never waits. Used by tests and dry runs.
type NopPacer struct{}

// Wait implements Pacer.
func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
