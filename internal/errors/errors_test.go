package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{NewValidation("titles"), false},
		{NewUnavailable("gmail", ""), false},
		{context.Canceled, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected status 503 from upstream"), true},
		{errors.New("unexpected status 429 from upstream"), true},
		{errors.New("unexpected status 400 from upstream"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryStopsOnNonTransientError(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return NewValidation("query")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt for a validation error, got %d", attempts)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := RetryWithResult(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("status 503")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryWithResult() error = %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Fatalf("got %q after %d attempts, want ok after 3", got, attempts)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker("test-backend", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return boom })
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open state after failures, got %v", cb.State())
	}

	if err := cb.Allow(); err == nil {
		t.Fatal("expected Allow() to reject while open")
	}

	time.Sleep(15 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open probe to be allowed, got %v", err)
	}
	cb.Mark(nil)
	if cb.State() != StateClosed {
		t.Fatalf("expected closed state after recovery, got %v", cb.State())
	}
}
