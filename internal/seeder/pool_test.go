package seeder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zstadler/mapproxy/internal/grid"
)

func batchFor(x, y, level int) TileBatch {
	return TileBatch{Coords: []grid.TileCoord{{X: x, Y: y, Level: level}}}
}

func TestPoolDrainsEveryBatchExactlyOnce(t *testing.T) {
	t.Parallel()

	tiles := newFakeTiles()
	pool := NewPool(tiles, PoolConfig{Concurrency: 3, QueueSize: 8}, noRetry(), nil, nil)

	const n = 50
	for i := 0; i < n; i++ {
		pool.Submit(batchFor(i, 0, 7))
	}
	pool.Stop()

	loaded := tiles.loadedTiles()
	require.Len(t, loaded, n)
	seen := map[grid.TileCoord]int{}
	for _, c := range loaded {
		seen[c]++
	}
	for c, count := range seen {
		require.Equalf(t, 1, count, "tile %s processed more than once", c)
	}
}

// blockingTiles parks LoadTiles until released, to hold a worker busy.
type blockingTiles struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingTiles() *blockingTiles {
	return &blockingTiles{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingTiles) IsCached(grid.TileCoord) bool { return false }

func (b *blockingTiles) LoadTiles(context.Context, []grid.TileCoord) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blockingTiles) ExpireBefore(time.Time) {}

func TestPoolSubmitBlocksWhenQueueIsFull(t *testing.T) {
	t.Parallel()

	tiles := newBlockingTiles()
	pool := NewPool(tiles, PoolConfig{Concurrency: 1, QueueSize: 1}, noRetry(), nil, nil)

	// First batch occupies the worker, second fills the queue.
	pool.Submit(batchFor(0, 0, 1))
	<-tiles.started
	pool.Submit(batchFor(1, 0, 1))

	submitted := make(chan struct{})
	go func() {
		pool.Submit(batchFor(2, 0, 1))
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit returned with a full queue and a busy worker")
	case <-time.After(100 * time.Millisecond):
	}

	close(tiles.release)
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit still blocked after the worker was released")
	}
	pool.Stop()
}

func TestPoolWorkerDeathLeavesSiblingsDraining(t *testing.T) {
	t.Parallel()

	tiles := newFakeTiles()
	tiles.loadErr = func(c grid.TileCoord) error {
		if c.Level == 99 {
			return fmt.Errorf("broken tile %s", c)
		}
		return nil
	}
	pool := NewPool(tiles, PoolConfig{Concurrency: 2, QueueSize: 4}, noRetry(), nil, nil)

	// The poison batch carries a non-retryable error and kills one worker;
	// the surviving worker must still drain everything behind it.
	pool.Submit(batchFor(0, 0, 99))
	const good = 20
	for i := 0; i < good; i++ {
		pool.Submit(batchFor(i, 1, 5))
	}
	pool.Stop()

	loaded := tiles.loadedTiles()
	require.Len(t, loaded, good)
	for _, c := range loaded {
		require.Equal(t, 5, c.Level)
	}
}

func TestPoolRetriesTransientFetchErrors(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	failures := 2
	tiles := newFakeTiles()
	tiles.loadErr = func(grid.TileCoord) error {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return fmt.Errorf("%w: flaky upstream", ErrSourceUnavailable)
		}
		return nil
	}

	retry := NewRetryPolicy()
	retry.sleep = func(time.Duration) {}
	pool := NewPool(tiles, PoolConfig{Concurrency: 1}, retry, nil, nil)

	pool.Submit(batchFor(3, 4, 5))
	pool.Stop()

	require.Equal(t, []grid.TileCoord{{X: 3, Y: 4, Level: 5}}, tiles.loadedTiles())
}

func TestPoolDryRunSkipsFetches(t *testing.T) {
	t.Parallel()

	tiles := newFakeTiles()
	pool := NewPool(tiles, PoolConfig{Concurrency: 2, DryRun: true}, noRetry(), nil, nil)
	for i := 0; i < 10; i++ {
		pool.Submit(batchFor(i, 0, 3))
	}
	pool.Stop()

	require.Empty(t, tiles.loadedTiles())
}

func TestPoolStopWithoutSubmissions(t *testing.T) {
	t.Parallel()

	pool := NewPool(newFakeTiles(), PoolConfig{}, noRetry(), nil, nil)
	pool.Stop()
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	require.True(t, IsTransient(ErrSourceUnavailable))
	require.True(t, IsTransient(fmt.Errorf("%w: read: connection reset", ErrIOFailure)))
	require.False(t, IsTransient(errors.New("unexpected status 404")))
	require.False(t, IsTransient(nil))
}
