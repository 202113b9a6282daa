package scanner

import (
	"context"
	"time"
)

// BackoffConfig bounds the exponential retry schedule used for RPC
// polling. Implemented as a small package-local helper rather than
// pulling in a dedicated retry/backoff library: no dependency in the
// teacher's or the rest of the pack's go.mod offers a backoff primitive
// narrower than an entire HTTP client framework, so this stays on the
// standard library (time, context) alone.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultBackoffConfig returns sane defaults: ~6 attempts from 200ms
// up to 5s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		MaxAttempts:  6,
	}
}

// RetryWithBackoff calls fn until it succeeds, ctx is canceled, or
// cfg.MaxAttempts is exhausted, doubling the delay after each failure
// up to cfg.MaxDelay.
func RetryWithBackoff(ctx context.Context, cfg BackoffConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultBackoffConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
