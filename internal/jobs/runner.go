// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of periodic work.  The runner passes its own context.
type Job func(ctx context.Context) error

// Runner schedules jobs on tickers that stop with its context.
type Runner struct {
	ctx context.Context // cancelled on shutdown
	log *zap.Logger
}

// New returns a runner whose jobs stop when ctx is cancelled.  Failed
// runs are logged through log.
func New(ctx context.Context, log *zap.Logger) *Runner { return &Runner{ctx: ctx, log: log} }

// Every runs fn on each tick until the runner's context ends.  A failed
// run is logged and counted; the schedule continues.
// A non-positive interval is refused and the job is not scheduled.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	if interval <= 0 {
		r.log.Error("job not scheduled: interval must be positive",
			zap.String("job", name), zap.Duration("interval", interval))
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Sweeper adapts a function reporting a removed count into a Job that
// logs the count when something was removed.
func Sweeper(log *zap.Logger, name string, fn func(context.Context) (int, error)) Job {
	return func(ctx context.Context) error {
		n, err := fn(ctx)
		if n > 0 {
			log.Info("swept", zap.String("job", name), zap.Int("removed", n))
		}
		return err
	}
}
