package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of periodic work. Errors are logged, never fatal; the loop
// always runs the next tick.
type Job func(ctx context.Context) error

// IntervalRunner runs a named job on a fixed interval until stopped. Each
// polling loop is independent; there is no shared execution beyond them.
type IntervalRunner struct {
	name     string
	interval time.Duration
	job      Job
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalRunner creates a runner for one periodic job
func NewIntervalRunner(name string, interval time.Duration, job Job, logger *zap.Logger) *IntervalRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalRunner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.Named("scheduler"),
	}
}

// Start launches the polling loop. Idempotent; a second Start is a no-op.
func (r *IntervalRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("interval runner started",
		zap.String("job", r.name),
		zap.Duration("interval", r.interval),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to finish. A run is
// never abandoned mid-flight.
func (r *IntervalRunner) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()

	r.logger.Info("interval runner stopped", zap.String("job", r.name))
}

func (r *IntervalRunner) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *IntervalRunner) runOnce(ctx context.Context) {
	start := time.Now()
	if err := r.job(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("scheduled job failed",
			zap.String("job", r.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("scheduled job finished",
		zap.String("job", r.name),
		zap.Duration("elapsed", time.Since(start)),
	)
}
