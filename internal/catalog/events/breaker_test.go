package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flaky struct {
	calls int
	err   error
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Notify(context.Context, Notification) error {
	f.calls++
	return f.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	sub := &flaky{err: errors.New("broker down")}
	b := NewBreaker(sub, 2, time.Minute)

	b.Notify(ctx, Notification{})
	b.Notify(ctx, Notification{})
	if b.State() != StateOpen {
		t.Fatalf("state = %s after two failures", b.State())
	}

	if err := b.Notify(ctx, Notification{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if sub.calls != 2 {
		t.Fatalf("open circuit forwarded a delivery: %d calls", sub.calls)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	ctx := context.Background()
	sub := &flaky{err: errors.New("broker down")}
	b := NewBreaker(sub, 1, time.Minute)

	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Notify(ctx, Notification{})
	if b.State() != StateOpen {
		t.Fatalf("state = %s", b.State())
	}

	clock = clock.Add(2 * time.Minute)
	sub.err = nil
	for i := 0; i < halfOpenSuccesses; i++ {
		if err := b.Notify(ctx, Notification{}); err != nil {
			t.Fatalf("trial call %d: %v", i, err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s after successful trial calls", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	ctx := context.Background()
	sub := &flaky{err: errors.New("broker down")}
	b := NewBreaker(sub, 1, time.Minute)

	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Notify(ctx, Notification{})
	clock = clock.Add(2 * time.Minute)
	b.Notify(ctx, Notification{})

	if b.State() != StateOpen {
		t.Fatalf("state = %s after a failed trial call", b.State())
	}
}
