package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var errFlaky = errors.New("flaky")

func retryAll(error) Classification {
	return Classification{Retryable: true, RecordFailure: true}
}

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	e := NewExecutor(fastConfig(), zap.NewNop())

	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	e := NewExecutor(fastConfig(), zap.NewNop())

	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		return errFlaky
	}, retryAll)
	if !errors.Is(err, errFlaky) {
		t.Fatalf("err = %v, want errFlaky", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want max attempts", calls)
	}
}

func TestExecuteNonRetryableStopsImmediately(t *testing.T) {
	e := NewExecutor(fastConfig(), zap.NewNop())

	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		return errFlaky
	}, nil)
	if !errors.Is(err, errFlaky) {
		t.Fatalf("err = %v, want errFlaky", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 with the terminal classifier", calls)
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	e := NewExecutor(fastConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.Execute(ctx, "embed", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerRatio = 0.5
	cfg.BreakerOpenFor = time.Minute
	e := NewExecutor(cfg, zap.NewNop())

	fail := func(context.Context) error { return errFlaky }
	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "rerank", fail, retryAll)
	}

	err := e.Execute(context.Background(), "rerank", fail, retryAll)
	if !IsCircuitOpen(err) {
		t.Fatalf("err = %v, want open circuit", err)
	}
}

func TestBreakerIsolatesOperations(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerOpenFor = time.Minute
	e := NewExecutor(cfg, zap.NewNop())

	fail := func(context.Context) error { return errFlaky }
	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "rerank", fail, retryAll)
	}

	if err := e.Execute(context.Background(), "embed", func(context.Context) error { return nil }, retryAll); err != nil {
		t.Fatalf("embed should not share the rerank breaker: %v", err)
	}
}
