// Package retry provides the backoff executor used around every outbound
// call that can hit quota limits or transient network failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Options configures the executor behavior.
type Options struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the first retry; doubles each retry
}

// DefaultOptions returns the defaults used by the AI and provider clients.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// rateLimitMarkers are the substrings that identify a quota rejection in an
// upstream error message. Brittle but matches what the Gemini and news APIs
// actually return today.
var rateLimitMarkers = []string{"429", "RATE_LIMIT", "rate limit", "quota"}

// Retryable reports whether err is transient: a rate-limit rejection or a
// network-level failure (timeouts included). Everything else is treated as
// permanent and aborts immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn up to opts.MaxAttempts times, sleeping BaseDelay*2^attempt
// after the attempt-th failure (2s then 4s at the default base). Only
// retryable errors trigger another attempt;
// permanent errors are returned as-is after the first failure. Exhaustion
// wraps the last error.
func Do(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !Retryable(lastErr) {
			return lastErr
		}

		if attempt < opts.MaxAttempts {
			delay := opts.BaseDelay << attempt
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", opts.MaxAttempts, lastErr)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, opts, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}
