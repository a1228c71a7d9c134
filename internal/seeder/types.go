package seeder

import (
	"fmt"
	"time"

	"github.com/zstadler/mapproxy/internal/grid"
)

// Intersection is the tri-state result of classifying a bounding box against
// the coverage.
type Intersection int

// Intersection values. Contains licenses skipping geometry tests for every
// descendant; None prunes the whole subtree.
const (
	IntersectionNone Intersection = iota
	IntersectionIntersects
	IntersectionContains
)

// String implements fmt.Stringer.
func (i Intersection) String() string {
	switch i {
	case IntersectionNone:
		return "none"
	case IntersectionIntersects:
		return "intersects"
	case IntersectionContains:
		return "contains"
	default:
		return fmt.Sprintf("intersection(%d)", int(i))
	}
}

// SeedTask describes one seed run. It is constructed before the run,
// read-only thereafter, and discarded afterwards.
type SeedTask struct {
	// ID identifies the run in logs and notifications.
	ID string
	// Name is the operator-facing task label from the manifest.
	Name string
	// Grid subdivides the traversal.
	Grid Grid
	// Coverage bounds the area to seed.
	Coverage Coverage
	// Levels lists the zoom levels to seed, coarse to fine.
	Levels []int
	// Tiles is the target cache.
	Tiles TileManager
	// RefreshBefore, when non-zero, forces re-fetch of tiles older than it.
	RefreshBefore time.Time
}

// Validate rejects malformed tasks. Violations here are programming errors
// in the caller, not runtime faults.
func (t *SeedTask) Validate() error {
	if t.Grid == nil {
		return fmt.Errorf("seed task %q: grid is required", t.Name)
	}
	if t.Coverage == nil {
		return fmt.Errorf("seed task %q: coverage is required", t.Name)
	}
	if t.Tiles == nil {
		return fmt.Errorf("seed task %q: tile manager is required", t.Name)
	}
	if len(t.Levels) == 0 {
		return fmt.Errorf("seed task %q: level list is empty", t.Name)
	}
	for i := 1; i < len(t.Levels); i++ {
		if t.Levels[i] <= t.Levels[i-1] {
			return fmt.Errorf("seed task %q: levels must ascend, got %v", t.Name, t.Levels)
		}
	}
	if !t.Coverage.BBox().Valid() {
		return fmt.Errorf("seed task %q: coverage bbox %v is inverted", t.Name, t.Coverage.BBox())
	}
	return nil
}

// ProgressSnapshot is a point-in-time copy of the traversal's progress state,
// taken when a batch is enqueued so workers can display it without racing the
// traversal goroutine.
type ProgressSnapshot struct {
	// Path is the branch-path symbol string identifying the traversal
	// position, for human-readable output only.
	Path string
	// Progress is the cumulative fraction in [0, 1].
	Progress float64
	// ETA is the formatted remaining-time estimate, or "n/a".
	ETA string
}

// TileBatch is one unit of work for the pool: a meta tile's worth of
// coordinates plus the progress snapshot current at enqueue time. Each batch
// is consumed exactly once by one worker.
type TileBatch struct {
	Coords   []grid.TileCoord
	Progress ProgressSnapshot
}
