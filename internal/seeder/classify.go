package seeder

import "github.com/zstadler/mapproxy/internal/grid"

// IntersectionClassifier answers the tri-state coverage question for a
// bounding box.
type IntersectionClassifier struct {
	coverage Coverage
}

// NewIntersectionClassifier wraps a coverage collaborator.
func NewIntersectionClassifier(coverage Coverage) *IntersectionClassifier {
	return &IntersectionClassifier{coverage: coverage}
}

// Classify returns the intersection of b with the coverage. When allSubtiles
// is set the coverage is not consulted at all: a Contains result at a coarser
// level already guarantees every descendant is fully covered.
func (c *IntersectionClassifier) Classify(b grid.BBox, allSubtiles bool) Intersection {
	if allSubtiles {
		return IntersectionContains
	}
	if c.coverage.Contains(b) {
		return IntersectionContains
	}
	if c.coverage.Intersects(b) {
		return IntersectionIntersects
	}
	return IntersectionNone
}
