package seeder

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunOptions configures a sequence of seed runs.
type RunOptions struct {
	// Concurrency sizes each task's worker pool.
	Concurrency int
	// QueueSize bounds each task's batch queue.
	QueueSize int
	// DryRun exercises traversal, classification, and progress reporting
	// without touching the cache.
	DryRun bool
	// SkipGeomsForLastLevels is passed through to each Seeder.
	SkipGeomsForLastLevels int
	// Retry wraps every tile fetch; nil uses the defaults.
	Retry *RetryPolicy
	// Reporter receives all console output; nil writes to stdout.
	Reporter *Reporter
	// Notifier, when set, receives one payload per finished task on Topic.
	Notifier Notifier
	Topic    string

	Clock  Clock
	Logger *zap.Logger
}

// RunTasks seeds each task strictly in sequence. Every task gets its own
// pool, started before its traversal and stopped (fully drained) after it;
// no two tasks' pools ever run at the same time. The first invalid task
// aborts the remainder.
func RunTasks(ctx context.Context, tasks []*SeedTask, opts RunOptions) error {
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NewReporter(nil, clock)
	}

	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return err
		}
		reporter.TaskHeader(task)
		if !task.RefreshBefore.IsZero() {
			task.Tiles.ExpireBefore(task.RefreshBefore)
		}

		started := clock.Now()
		pool := NewPool(task.Tiles, PoolConfig{
			Concurrency: opts.Concurrency,
			QueueSize:   opts.QueueSize,
			DryRun:      opts.DryRun,
		}, opts.Retry, reporter, logger)

		sdr, err := NewSeeder(task, pool, Options{
			SkipGeomsForLastLevels: opts.SkipGeomsForLastLevels,
			Reporter:               reporter,
			Clock:                  clock,
			Logger:                 logger,
		})
		if err != nil {
			pool.Stop()
			return err
		}
		sdr.Seed()
		pool.Stop()

		logger.Info("seed task finished",
			zap.String("task", task.Name),
			zap.String("task_id", task.ID),
			zap.Int("tiles_enqueued", sdr.EnqueuedTiles()),
			zap.Duration("elapsed", clock.Now().Sub(started)),
			zap.Bool("dry_run", opts.DryRun))

		notifyTaskDone(ctx, task, sdr, opts, clock.Now().Sub(started), logger)
	}
	return nil
}

func notifyTaskDone(ctx context.Context, task *SeedTask, sdr *Seeder, opts RunOptions, elapsed time.Duration, logger *zap.Logger) {
	if opts.Notifier == nil || opts.Topic == "" {
		return
	}
	payload := map[string]any{
		"task":           task.Name,
		"task_id":        task.ID,
		"levels":         task.Levels,
		"tiles_enqueued": sdr.EnqueuedTiles(),
		"elapsed_ms":     elapsed.Milliseconds(),
		"dry_run":        opts.DryRun,
	}
	if _, err := opts.Notifier.Publish(ctx, opts.Topic, payload); err != nil {
		logger.Warn("seed completion notify failed",
			zap.String("task", task.Name), zap.Error(err))
	}
}
