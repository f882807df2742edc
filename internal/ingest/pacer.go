package ingest

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out provider calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer allows one call per interval. The first call passes immediately.
type RatePacer struct {
	limiter *rate.Limiter
}

func NewRatePacer(interval time.Duration) *RatePacer {
	return &RatePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type NoopPacer struct{}

func (NoopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
