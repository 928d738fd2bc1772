package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/argusmesh/agentmesh/internal/resilience"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name: "test", FailureThreshold: 3, RecoveryTimeout: time.Hour, SuccessThreshold: 1,
	})

	failing := errors.New("boom")
	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return failing })
	}

	if cb.State() != resilience.CircuitOpen {
		t.Fatalf("expected circuit open after 3 failures, got %s", cb.State())
	}

	if err := cb.Call(func() error { return nil }); err == nil {
		t.Error("expected call to be rejected while circuit is open")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name: "test", FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond, SuccessThreshold: 1,
	})

	_ = cb.Call(func() error { return errors.New("boom") })
	if cb.State() != resilience.CircuitOpen {
		t.Fatal("expected circuit open")
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if cb.State() != resilience.CircuitClosed {
		t.Errorf("expected circuit closed after successful probe, got %s", cb.State())
	}
}

func TestExponentialBackoff_RespectsMaxRetries(t *testing.T) {
	eb := resilience.NewExponentialBackoff(resilience.BackoffConfig{
		InitialDelay: time.Millisecond, MaxDelay: time.Second, Multiplier: 2, MaxRetries: 2,
	})

	if d := eb.NextDelay(); d == 0 {
		t.Error("expected non-zero delay on first attempt")
	}
	if d := eb.NextDelay(); d == 0 {
		t.Error("expected non-zero delay on second attempt")
	}
	if d := eb.NextDelay(); d != 0 {
		t.Errorf("expected 0 after exhausting MaxRetries, got %v", d)
	}
}

func TestRetryWithBackoff_SucceedsEventually(t *testing.T) {
	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	}, resilience.BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2, MaxRetries: 5})

	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}
