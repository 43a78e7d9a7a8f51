// Package retry provides the explicit retry-with-backoff helper used by
// both platform API clients. Retry policy is declarative: callers pass an
// error classifier and the helper never second-guesses it.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/orderbridge/backend/internal/domain/shared"
)

// Config holds retry policy knobs
type Config struct {
	// MaxAttempts is the total number of attempts including the first
	MaxAttempts int
	// BaseDelay is the initial backoff interval
	BaseDelay time.Duration
	// MaxDelay caps the backoff interval
	MaxDelay time.Duration
}

// DefaultConfig returns a conservative retry policy
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Classifier reports whether an error is worth retrying. Authentication
// failures must classify as non-retryable; token refresh is an explicit
// action, never a retry.
type Classifier func(error) bool

// newBackOff builds the exponential backoff for one operation. Jitter is
// disabled so delays double monotonically up to the cap.
func newBackOff(cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs op with exponential backoff. Retryable errors (per the classifier)
// are retried up to cfg.MaxAttempts total attempts; non-retryable errors are
// returned immediately. On exhaustion the last error is returned unchanged so
// callers keep its categorization.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error), retryable Classifier) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if retryable == nil {
		retryable = shared.IsRetryable
	}

	var result T
	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(cfg), uint64(cfg.MaxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		var opErr error
		result, opErr = op(ctx)
		if opErr == nil {
			return nil
		}
		if !retryable(opErr) {
			return backoff.Permanent(opErr)
		}
		return opErr
	}, b)

	return result, err
}
