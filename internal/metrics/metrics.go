// Package metrics exposes Prometheus collectors for the seeding service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	seedTilesTotal    prometheus.Counter
	seedBatchesTotal  prometheus.Counter
	seedSkippedTotal  prometheus.Counter
	seedRetriesTotal  prometheus.Counter
	seedActiveWorkers prometheus.Gauge
	seedQueueDepth    prometheus.Gauge

	once sync.Once
)

// Init registers the collectors on the default registry. It is safe to call
// multiple times.
func Init() {
	once.Do(func() {
		seedTilesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "seed_tiles_total",
			Help: "Total number of tiles written to the cache.",
		})
		seedBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "seed_batches_total",
			Help: "Total number of tile batches processed by workers.",
		})
		seedSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "seed_tiles_skipped_total",
			Help: "Total number of tiles skipped because they were already cached.",
		})
		seedRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "seed_fetch_retries_total",
			Help: "Total number of retried tile fetches.",
		})
		seedActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "seed_active_workers",
			Help: "Number of pool workers currently running.",
		})
		seedQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "seed_queue_depth",
			Help: "Number of tile batches waiting in the pool queue.",
		})
	})
}

// TileStored counts one tile written to the cache.
func TileStored() {
	if seedTilesTotal != nil {
		seedTilesTotal.Inc()
	}
}

// BatchProcessed counts one batch pulled off the queue.
func BatchProcessed() {
	if seedBatchesTotal != nil {
		seedBatchesTotal.Inc()
	}
}

// TileSkipped counts a tile left untouched because the cache already had it.
func TileSkipped() {
	if seedSkippedTotal != nil {
		seedSkippedTotal.Inc()
	}
}

// RetryObserved counts one retried fetch attempt.
func RetryObserved() {
	if seedRetriesTotal != nil {
		seedRetriesTotal.Inc()
	}
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if seedActiveWorkers != nil {
		seedActiveWorkers.Inc()
	}
}

// WorkerStopped decrements the active worker gauge.
func WorkerStopped() {
	if seedActiveWorkers != nil {
		seedActiveWorkers.Dec()
	}
}

// QueueDepth records the current queue length.
func QueueDepth(n int) {
	if seedQueueDepth != nil {
		seedQueueDepth.Set(float64(n))
	}
}
