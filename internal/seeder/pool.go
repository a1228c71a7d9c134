package seeder

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/zstadler/mapproxy/internal/metrics"
)

const defaultQueueSize = 32

// PoolConfig is captured once at pool construction and handed to every
// worker; workers never consult ambient state.
type PoolConfig struct {
	// Concurrency is the fixed number of workers. Defaults to 2.
	Concurrency int
	// QueueSize bounds the batch queue; a full queue blocks Submit,
	// applying backpressure to the traversal. Defaults to 32.
	QueueSize int
	// DryRun suppresses the actual fetches while keeping progress output.
	DryRun bool
}

// Pool drains TileBatches with a fixed set of workers. It is created per
// seed task and torn down at task end; it owns no domain state beyond the
// queue and its workers.
type Pool struct {
	queue    chan TileBatch
	wg       sync.WaitGroup
	tiles    TileManager
	retry    *RetryPolicy
	reporter *Reporter
	logger   *zap.Logger
	dryRun   bool
}

// NewPool starts cfg.Concurrency workers draining the queue against tiles.
// Fetches run through retry; nil retry falls back to the default policy.
func NewPool(tiles TileManager, cfg PoolConfig, retry *RetryPolicy, reporter *Reporter, logger *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if retry == nil {
		retry = NewRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		queue:    make(chan TileBatch, cfg.QueueSize),
		tiles:    tiles,
		retry:    retry,
		reporter: reporter,
		logger:   logger,
		dryRun:   cfg.DryRun,
	}
	for i := 0; i < cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit enqueues one batch. It blocks while the queue is full, bounding how
// far the traversal can run ahead of fetch throughput.
func (p *Pool) Submit(batch TileBatch) {
	p.queue <- batch
	metrics.QueueDepth(len(p.queue))
}

// Stop closes the queue and waits for every worker to exit. No submitted
// batch is dropped: workers drain the queue before returning. Stop never
// fails; it only waits.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// worker loops over the queue until it is closed and drained. A fetch that
// exhausts retries, or fails with a non-retryable error, ends this worker
// only; the remaining workers keep draining the queue.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	metrics.WorkerStarted()
	defer metrics.WorkerStopped()

	for batch := range p.queue {
		metrics.BatchProcessed()
		metrics.QueueDepth(len(p.queue))
		if p.reporter != nil {
			p.reporter.Batch(batch.Progress)
		}
		if p.dryRun {
			continue
		}
		coords := batch.Coords
		err := p.retry.Run(func() error {
			return p.tiles.LoadTiles(context.Background(), coords)
		}, IsTransient)
		if err != nil {
			p.logger.Error("seed worker giving up",
				zap.Int("worker", id),
				zap.Stringers("tiles", coords),
				zap.Error(err))
			return
		}
	}
}
