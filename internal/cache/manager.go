// Package cache implements the tile manager: cached-or-not decisions and
// write-through loading of meta tiles from an upstream source.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zstadler/mapproxy/internal/grid"
	"github.com/zstadler/mapproxy/internal/metrics"
	"github.com/zstadler/mapproxy/internal/seeder"
)

// Source fetches one raw tile's body.
type Source interface {
	FetchTile(ctx context.Context, c grid.TileCoord) ([]byte, error)
}

// Store persists raw tiles. Implementations must tolerate concurrent Put
// calls for different coordinates.
type Store interface {
	// ModTime returns the tile's last write time; ok is false when the
	// tile is missing.
	ModTime(ctx context.Context, c grid.TileCoord) (modTime time.Time, ok bool, err error)
	Put(ctx context.Context, c grid.TileCoord, data []byte) error
}

// Manager implements seeder.TileManager over a Source and a Store. The
// coordinates it receives address meta tiles; it expands them to raw tiles
// and fetches the missing ones concurrently.
type Manager struct {
	grid   *grid.MetaGrid
	source Source
	store  Store
	logger *zap.Logger

	mu           sync.RWMutex
	expireBefore time.Time
}

// NewManager wires a meta grid, source, and store into a tile manager.
func NewManager(mg *grid.MetaGrid, source Source, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{grid: mg, source: source, store: store, logger: logger}
}

// ExpireBefore marks tiles older than t as stale: IsCached reports false for
// them until they are rewritten.
func (m *Manager) ExpireBefore(t time.Time) {
	m.mu.Lock()
	m.expireBefore = t
	m.mu.Unlock()
}

func (m *Manager) isFresh(modTime time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expireBefore.IsZero() || !modTime.Before(m.expireBefore)
}

// IsCached reports whether every raw tile of the meta tile is present and
// fresh. Store errors count as "not cached" so the tile gets re-fetched.
func (m *Manager) IsCached(c grid.TileCoord) bool {
	ctx := context.Background()
	for _, tile := range m.grid.TilesInMeta(c) {
		modTime, ok, err := m.store.ModTime(ctx, tile)
		if err != nil {
			m.logger.Debug("cache lookup failed", zap.Stringer("tile", tile), zap.Error(err))
			return false
		}
		if !ok || !m.isFresh(modTime) {
			return false
		}
	}
	return true
}

// LoadTiles fetches and stores the raw tiles of the given meta tiles,
// skipping raw tiles that are already fresh. Fetches within a batch run
// concurrently; the first failure cancels the rest.
func (m *Manager) LoadTiles(ctx context.Context, coords []grid.TileCoord) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, meta := range coords {
		for _, tile := range m.grid.TilesInMeta(meta) {
			g.Go(func() error {
				return m.loadTile(ctx, tile)
			})
		}
	}
	return g.Wait()
}

func (m *Manager) loadTile(ctx context.Context, tile grid.TileCoord) error {
	modTime, ok, err := m.store.ModTime(ctx, tile)
	if err == nil && ok && m.isFresh(modTime) {
		metrics.TileSkipped()
		return nil
	}
	data, err := m.source.FetchTile(ctx, tile)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, tile, data); err != nil {
		return fmt.Errorf("%w: store %s: %v", seeder.ErrIOFailure, tile, err)
	}
	metrics.TileStored()
	return nil
}
