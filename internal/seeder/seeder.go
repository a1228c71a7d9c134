package seeder

import (
	"go.uber.org/zap"

	"github.com/zstadler/mapproxy/internal/grid"
)

// Options tunes a Seeder beyond its task.
type Options struct {
	// SkipGeomsForLastLevels forces the all-subtiles mode once fewer than
	// this many levels remain, trading precision at fine levels (possible
	// over-fetching just outside the coverage) for fewer geometry tests.
	SkipGeomsForLastLevels int
	Reporter               *Reporter
	Clock                  Clock
	Logger                 *zap.Logger
}

// Seeder walks one task's grid recursively, classifies sub-regions against
// the coverage, and feeds missing leaf tiles into the pool.
//
// A Seeder is single-owner state: exactly one goroutine runs Seed, and only
// that goroutine touches progress, count, and the ETA estimator. Workers
// receive immutable snapshots at enqueue time.
type Seeder struct {
	task       *SeedTask
	pool       *Pool
	classifier *IntersectionClassifier
	reporter   *Reporter
	eta        *ETA
	logger     *zap.Logger

	skipGeomsForLastLevels int
	reportTillLevel        int
	tilesPerMetaTile       int

	progress float64
	count    int
}

// NewSeeder validates the task and prepares a traversal. The progress report
// cutoff covers the coarsest 80% of the configured levels.
func NewSeeder(task *SeedTask, pool *Pool, opts Options) (*Seeder, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
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
	footprint := task.Grid.Footprint()
	return &Seeder{
		task:                   task,
		pool:                   pool,
		classifier:             NewIntersectionClassifier(task.Coverage),
		reporter:               reporter,
		eta:                    NewETA(clock),
		logger:                 logger,
		skipGeomsForLastLevels: opts.SkipGeomsForLastLevels,
		reportTillLevel:        task.Levels[int(float64(len(task.Levels))*0.8)],
		tilesPerMetaTile:       footprint.Cols * footprint.Rows,
	}, nil
}

// Seed runs the traversal to completion, starting from the coverage's
// overall bounding box. Work is handed to the pool as it is discovered; the
// caller stops the pool afterwards.
func (s *Seeder) Seed() {
	bbox := s.task.Coverage.BBox()
	s.seed(bbox, s.task.Levels, "", 1.0, false)
	s.reportProgress(s.task.Levels[0], bbox)
}

// Progress returns the cumulative fraction in [0, 1]. Single-owner: only
// meaningful once Seed returned.
func (s *Seeder) Progress() float64 {
	return s.progress
}

// EnqueuedTiles returns the number of enqueued fetch units times the
// meta-tile footprint.
func (s *Seeder) EnqueuedTiles() int {
	return s.count * s.tilesPerMetaTile
}

// seed descends one level. share is this subtree's slice of the total
// progress; it is fully allocated across the children whether they are
// pruned, recursed into, or enqueued, so the per-leaf increments always sum
// to 1.0.
func (s *Seeder) seed(curBBox grid.BBox, levels []int, path string, share float64, allSubtiles bool) {
	level, rest := levels[0], levels[1:]
	clipped, size, children := s.task.Grid.AffectedLevelTiles(curBBox, level)
	totalSubtiles := size.Cols * size.Rows
	if totalSubtiles == 0 {
		// Outside the grid extent entirely; count the subtree as done.
		s.progress += share
		s.eta.Update(s.progress)
		return
	}

	if len(rest) < s.skipGeomsForLastLevels {
		allSubtiles = true
	}
	if level <= s.reportTillLevel {
		s.reportProgress(level, clipped)
	}

	share /= float64(totalSubtiles)
	for i, child := range children {
		if !child.Valid {
			s.progress += share
			continue
		}
		intersection := s.classifier.Classify(child.BBox, allSubtiles)
		if intersection == IntersectionNone {
			s.progress += share
			continue
		}
		if len(rest) > 0 {
			subBBox := clipped.Clip(child.BBox)
			s.seed(subBBox, rest, path+statusSymbol(i, totalSubtiles),
				share, intersection == IntersectionContains)
			continue
		}
		// Leaf level: enqueue the tile unless the cache already has it.
		if !s.task.Tiles.IsCached(child.Coord) {
			s.count++
			s.pool.Submit(TileBatch{
				Coords: []grid.TileCoord{child.Coord},
				Progress: ProgressSnapshot{
					Path:     path,
					Progress: s.progress,
					ETA:      s.eta.String(),
				},
			})
		}
		s.progress += share
	}
	s.eta.Update(s.progress)
}

func (s *Seeder) reportProgress(level int, bbox grid.BBox) {
	s.reporter.Progress(Status{
		Task:     s.task.Name,
		Level:    level,
		Progress: s.progress,
		Tiles:    s.count * s.tilesPerMetaTile,
		ETA:      s.eta.String(),
	}, bbox)
}
