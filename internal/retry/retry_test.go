package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRetryableClassification(t *testing.T) {
	retryable := []error{
		errors.New("HTTP 429: Too Many Requests"),
		errors.New("RATE_LIMIT_EXCEEDED"),
		errors.New("gemini: rate limit hit"),
		errors.New("quota exhausted for project"),
		context.DeadlineExceeded,
	}
	for _, err := range retryable {
		if !Retryable(err) {
			t.Errorf("Expected %q to be retryable", err)
		}
	}

	permanent := []error{
		errors.New("HTTP 401: invalid api key"),
		errors.New("invalid request payload"),
	}
	for _, err := range permanent {
		if Retryable(err) {
			t.Errorf("Expected %q to be permanent", err)
		}
	}

	if Retryable(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}

func TestDoSucceedsAfterRateLimits(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	var delays []time.Duration
	last := time.Now()

	err := Do(ctx, Options{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond}, func(ctx context.Context) error {
		now := time.Now()
		if attempts > 0 {
			delays = append(delays, now.Sub(last))
		}
		last = now
		attempts++
		if attempts < 3 {
			return errors.New("HTTP 429: Too Many Requests")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	// Backoff doubles: base*2 after the first failure, base*4 after the second.
	if len(delays) != 2 {
		t.Fatalf("Expected 2 delays, got %d", len(delays))
	}
	if delays[0] < 10*time.Millisecond {
		t.Errorf("Expected first delay >= 10ms, got %v", delays[0])
	}
	if delays[1] < 20*time.Millisecond {
		t.Errorf("Expected second delay >= 20ms, got %v", delays[1])
	}
}

func TestDoAbortsOnPermanentError(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := Do(ctx, DefaultOptions(), func(ctx context.Context) error {
		attempts++
		return errors.New("HTTP 401: invalid api key")
	})
	if err == nil {
		t.Fatal("Expected error")
	}

	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt for a permanent error, got %d", attempts)
	}
	if strings.Contains(err.Error(), "failed after") {
		t.Errorf("Expected permanent error to be returned unwrapped, got %q", err)
	}
}

func TestDoExhaustionWrapsLastError(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := Do(ctx, Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("quota exhausted (attempt %d)", attempts)
	})
	if err == nil {
		t.Fatal("Expected error after exhaustion")
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	want := "failed after 3 attempts: quota exhausted (attempt 3)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestDoValueReturnsResult(t *testing.T) {
	ctx := context.Background()
	calls := 0

	got, err := DoValue(ctx, Options{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("quota exceeded")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "ok" {
		t.Errorf("Expected \"ok\", got %q", got)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, Options{MaxAttempts: 3, BaseDelay: time.Second}, func(ctx context.Context) error {
		return errors.New("HTTP 429: Too Many Requests")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
