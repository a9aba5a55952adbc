// Package retry provides the single retry policy shared by every component
// that calls the generation service.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DelayFunc computes the wait before the next attempt. attempt is the 1-based
// number of the attempt that just failed.
type DelayFunc func(attempt int) time.Duration

// Fixed waits the same duration after every failed attempt.
func Fixed(d time.Duration) DelayFunc {
	return func(int) time.Duration { return d }
}

// Linear waits base * attempt: base after the first failure, 2*base after the
// second, and so on.
func Linear(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int              // Total attempts, including the first
	Delay       DelayFunc        // Wait between attempts
	Retryable   func(error) bool // Only errors matching this are retried
	Logger      *slog.Logger
}

// Do runs op until it succeeds, fails with a non-retryable error, or exhausts
// MaxAttempts. The wait between attempts is cancellable via ctx.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		retryable := p.Retryable != nil && p.Retryable(lastErr)
		if !retryable || attempt == attempts {
			if retryable {
				return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
			}
			return lastErr
		}

		wait := time.Duration(0)
		if p.Delay != nil {
			wait = p.Delay(attempt)
		}
		if p.Logger != nil {
			p.Logger.Warn("retrying after failure",
				"attempt", attempt,
				"max_attempts", attempts,
				"wait", wait.String(),
				"error", lastErr.Error())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return lastErr
}
