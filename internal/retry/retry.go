// Package retry provides a bounded exponential-backoff wrapper for calls to
// unreliable external services.
package retry

import (
	"context"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy bounds a retried call.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// BaseDelay is the wait after the first failure; it doubles after each
	// subsequent failure.
	BaseDelay time.Duration
}

// DefaultPolicy returns three attempts starting at a two second delay.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: 2 * time.Second}
}

// ExhaustedError is returned when every attempt failed. Err is the error of
// the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds or the policy's attempts are used up. Every
// error from fn is treated as retryable. Context cancellation stops waiting
// and returns the context's error.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := policy.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}

	backoff := goretry.WithMaxRetries(uint64(attempts-1), goretry.NewExponential(base))

	var (
		result  T
		lastErr error
		attempt int
	)
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		value, err := fn(ctx, attempt)
		if err != nil {
			lastErr = err
			return goretry.RetryableError(err)
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &ExhaustedError{Attempts: attempt, Err: lastErr}
	}
	return result, nil
}
