// Package seeder implements recursive tile-cache seeding: coverage-driven
// grid traversal, a bounded worker pool, retries around tile fetches, and
// incremental progress estimation.
package seeder

import (
	"context"
	"time"

	"github.com/zstadler/mapproxy/internal/grid"
)

// Grid subdivides bounding boxes into meta tiles. Implemented by
// grid.MetaGrid.
type Grid interface {
	// AffectedLevelTiles returns the bbox snapped to meta-tile boundaries,
	// the 2-D subdivision size, and one ChildTile per slot. Slots with
	// Valid=false do not intersect the box at the grid level.
	AffectedLevelTiles(bbox grid.BBox, level int) (grid.BBox, grid.Size, []grid.ChildTile)
	// MetaTileBBox returns the bounding box of one meta tile.
	MetaTileBBox(c grid.TileCoord) grid.BBox
	// Footprint reports how many raw tiles one meta tile covers.
	Footprint() grid.Size
}

// Coverage answers geometry questions about the area to seed. Implementations
// reproject internally to the grid's reference system; the seeder only sees
// the tri-state answers.
type Coverage interface {
	Contains(b grid.BBox) bool
	Intersects(b grid.BBox) bool
	// BBox returns the overall extent the traversal starts from.
	BBox() grid.BBox
}

// TileManager is the cache collaborator. It must tolerate concurrent
// LoadTiles calls from multiple workers; internal consistency is its own
// contract.
type TileManager interface {
	IsCached(c grid.TileCoord) bool
	LoadTiles(ctx context.Context, coords []grid.TileCoord) error
	// ExpireBefore makes IsCached report false for tiles older than t.
	ExpireBefore(t time.Time)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// systemClock is the fallback Clock when callers do not inject one.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Notifier publishes task-completion payloads to an external channel.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
