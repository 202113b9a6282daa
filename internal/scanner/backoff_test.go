package scanner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 5}

	err := RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 3}
	attempts := 0

	err := RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != cfg.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", cfg.MaxAttempts, attempts)
	}
}

func TestRetryWithBackoffContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := BackoffConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 10 * time.Millisecond, MaxAttempts: 5}
	err := RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error when context is already canceled")
	}
}
