// Package pacing spaces sequential backend calls so a full generation run
// stays under the shared provider rate limit. A Policy runs with
// concurrency one: the pipeline calls Wait between consecutive renders.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"brandkit/internal/infra"
)

// DefaultDelay is the fixed spacing between sequential renders.
const DefaultDelay = 1500 * time.Millisecond

// Policy decides how long to hold back before the next backend call.
type Policy interface {
	// Wait blocks until the next call may start or ctx is done.
	Wait(ctx context.Context) error
}

// FixedDelay waits a constant duration after each completed call.
type FixedDelay struct {
	Delay time.Duration
	Sleep func(ctx context.Context, d time.Duration) error
}

func (f FixedDelay) Wait(ctx context.Context) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, f.Delay)
	}
	return sleep(ctx, f.Delay)
}

// TokenBucket admits one call per interval with a burst of one, measured
// from the previous admission instead of the previous completion.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket builds a limiter that admits one call every interval. The
// initial token is spent at construction so the first Wait already spaces.
func NewTokenBucket(interval time.Duration) *TokenBucket {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)
	limiter.Allow()
	return &TokenBucket{limiter: limiter}
}

func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// None never waits.
type None struct{}

func (None) Wait(ctx context.Context) error { return ctx.Err() }

// FromConfig selects the policy named by PACING_MODE.
func FromConfig(cfg *infra.Config) (Policy, error) {
	if cfg == nil {
		return FixedDelay{Delay: DefaultDelay}, nil
	}
	switch cfg.PacingMode {
	case infra.PacingFixed, "":
		return FixedDelay{Delay: cfg.PacingDelay}, nil
	case infra.PacingToken:
		return NewTokenBucket(cfg.PacingDelay), nil
	default:
		return nil, fmt.Errorf("pacing: unknown mode %q", cfg.PacingMode)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
