package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	policy := Policy{
		MaxAttempts: 3,
		Delay:       Fixed(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient failure %d", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	policy := Policy{
		MaxAttempts: 3,
		Delay:       Fixed(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}

	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if !strings.Contains(err.Error(), "giving up after 3 attempts") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent failure")
	calls := 0
	policy := Policy{
		MaxAttempts: 5,
		Delay:       Fixed(time.Millisecond),
		Retryable:   func(err error) bool { return false },
	}

	err := policy.Do(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

func TestDoSelectiveRetryable(t *testing.T) {
	calls := 0
	policy := Policy{
		MaxAttempts: 4,
		Delay:       Fixed(0),
		Retryable: func(err error) bool {
			return strings.Contains(err.Error(), "retry me")
		},
	}

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return errors.New("give up")
	})
	if err == nil || err.Error() != "give up" {
		t.Errorf("expected the non-retryable error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := Policy{
		MaxAttempts: 3,
		Delay:       Fixed(time.Hour),
		Retryable:   func(error) bool { return true },
	}

	err := policy.Do(ctx, func() error { return errors.New("transient") })
	if err == nil || !strings.Contains(err.Error(), "retry cancelled") {
		t.Errorf("expected cancellation error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestFixedDelay(t *testing.T) {
	d := Fixed(30 * time.Second)
	for attempt := 1; attempt <= 3; attempt++ {
		if got := d(attempt); got != 30*time.Second {
			t.Errorf("Fixed(30s)(%d) = %v, want 30s", attempt, got)
		}
	}
}

func TestLinearDelay(t *testing.T) {
	d := Linear(2 * time.Minute)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Minute},
		{2, 4 * time.Minute},
		{3, 6 * time.Minute},
	}
	for _, c := range cases {
		if got := d(c.attempt); got != c.want {
			t.Errorf("Linear(2m)(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestDoZeroMaxAttemptsRunsOnce(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 0}

	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}
