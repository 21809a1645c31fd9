package pacing

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandkit/internal/infra"
)

func TestFixedDelayUsesConfiguredSleep(t *testing.T) {
	var got []time.Duration
	p := FixedDelay{Delay: DefaultDelay, Sleep: func(ctx context.Context, d time.Duration) error {
		got = append(got, d)
		return nil
	}}
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
	if len(got) != 3 || got[0] != 1500*time.Millisecond {
		t.Fatalf("sleeps = %v", got)
	}
}

func TestFixedDelayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (FixedDelay{Delay: time.Hour}).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}
}

func TestTokenBucketSpacesFirstWait(t *testing.T) {
	tb := NewTokenBucket(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// The next token is an hour away, beyond the context deadline.
	if err := tb.Wait(ctx); err == nil {
		t.Fatal("expected Wait to fail before the interval elapses")
	}
}

func TestTokenBucketShortInterval(t *testing.T) {
	tb := NewTokenBucket(time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if err := tb.Wait(ctx); err != nil {
			t.Fatalf("Wait %d returned error: %v", i, err)
		}
	}
}

func TestTokenBucketZeroIntervalNeverBlocks(t *testing.T) {
	tb := NewTokenBucket(0)
	for i := 0; i < 5; i++ {
		if err := tb.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(&infra.Config{PacingMode: infra.PacingFixed, PacingDelay: time.Second})
	if err != nil {
		t.Fatalf("FromConfig returned error: %v", err)
	}
	if fd, ok := p.(FixedDelay); !ok || fd.Delay != time.Second {
		t.Fatalf("policy = %#v", p)
	}
	p, err = FromConfig(&infra.Config{PacingMode: infra.PacingToken, PacingDelay: time.Second})
	if err != nil {
		t.Fatalf("FromConfig returned error: %v", err)
	}
	if _, ok := p.(*TokenBucket); !ok {
		t.Fatalf("policy = %#v, want *TokenBucket", p)
	}
	if _, err := FromConfig(&infra.Config{PacingMode: "burst"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
