package retry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"brandkit/internal/infra"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
	// MaxBackoff bounds a single wait however many attempts are configured.
	MaxBackoff = 5 * time.Minute
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy is a bounded exponential backoff for transient quota failures.
// Attempt i (zero-based) that fails with a quota signal waits
// InitialDelay * 2^i before the next attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Logger       *infra.Logger
	Sleep        SleepFunc
}

// Default returns the policy used around every backend call.
func Default(logger *infra.Logger) Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Logger:       logger,
	}
}

// Backoff returns the wait after the failed attempt with zero-based index,
// capped at MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if p.InitialDelay <= 0 {
		return 0
	}
	if p.InitialDelay >= MaxBackoff {
		return MaxBackoff
	}
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (p Policy) logger() *infra.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	l := zerolog.New(io.Discard)
	return &l
}

// Do runs fn until it succeeds, fails with a non-quota error, or attempts run
// out. op names the operation in diagnostics.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if Classify(err) != KindTransientQuota {
			return zero, err
		}
		if attempt == attempts-1 {
			return zero, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
		}
		delay := p.Backoff(attempt)
		p.logger().Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("delay", delay).
			Msg("retry: quota exhausted, backing off")
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%s: no attempts made", op)
}

// Sleep blocks for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
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
