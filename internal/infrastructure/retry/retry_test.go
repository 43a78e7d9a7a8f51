package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderbridge/backend/internal/domain/shared"
)

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		attempts++
		return "ok", nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	transient := shared.NewRetryableError(shared.ErrCodeProviderAPIError, "server error 503")

	attempts := 0
	result, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts <= 2 {
			return 0, transient
		}
		return 42, nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	// 2 failures then a success: exactly 2 retries
	assert.Equal(t, 3, attempts)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, shared.ErrAuthenticationFailed
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAuthenticationFailed)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustionKeepsOriginalError(t *testing.T) {
	transient := shared.NewRetryableError(shared.ErrCodeRateLimitExceeded, "429")

	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, transient
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.True(t, shared.IsRetryable(err))
	assert.Equal(t, 3, attempts)
}

func TestDo_CustomClassifier(t *testing.T) {
	sentinel := errors.New("flaky")

	attempts := 0
	_, err := Do(context.Background(), fastConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, sentinel
	}, func(err error) bool {
		return errors.Is(err, sentinel)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := Do(ctx, Config{MaxAttempts: 5, BaseDelay: time.Minute, MaxDelay: time.Minute}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, shared.ErrNetworkError
	}, nil)

	require.Error(t, err)
	// First attempt runs, then the cancelled context stops the backoff wait
	assert.Equal(t, 1, attempts)
}

func TestNewBackOff_MonotonicDoubling(t *testing.T) {
	cfg := Config{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	b := newBackOff(cfg)

	first := b.NextBackOff()
	second := b.NextBackOff()
	third := b.NextBackOff()

	assert.Equal(t, 100*time.Millisecond, first)
	assert.Equal(t, 200*time.Millisecond, second)
	assert.Equal(t, 400*time.Millisecond, third)
}
