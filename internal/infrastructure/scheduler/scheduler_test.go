package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalRunner_RunsOnInterval(t *testing.T) {
	var runs atomic.Int32
	runner := NewIntervalRunner("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestIntervalRunner_StopHaltsLoop(t *testing.T) {
	var runs atomic.Int32
	runner := NewIntervalRunner("test", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	require.NoError(t, runner.Start(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)

	runner.Stop()
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestIntervalRunner_JobErrorDoesNotStopLoop(t *testing.T) {
	var runs atomic.Int32
	runner := NewIntervalRunner("test", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient failure")
	}, nil)

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, time.Millisecond)
}

func TestIntervalRunner_StartIsIdempotent(t *testing.T) {
	runner := NewIntervalRunner("test", time.Hour, func(ctx context.Context) error {
		return nil
	}, nil)

	ctx := context.Background()
	require.NoError(t, runner.Start(ctx))
	require.NoError(t, runner.Start(ctx))
	runner.Stop()
	runner.Stop()
}
