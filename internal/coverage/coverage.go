// Package coverage implements seed coverages as bounding-box geometry.
package coverage

import "github.com/zstadler/mapproxy/internal/grid"

// BBoxCoverage is a rectangular coverage. It satisfies seeder.Coverage.
type BBoxCoverage struct {
	bbox grid.BBox
}

// NewBBox builds a coverage over b.
func NewBBox(b grid.BBox) *BBoxCoverage {
	return &BBoxCoverage{bbox: b}
}

// Contains reports whether b lies entirely inside the coverage.
func (c *BBoxCoverage) Contains(b grid.BBox) bool {
	return c.bbox.Contains(b)
}

// Intersects reports whether b overlaps the coverage at all.
func (c *BBoxCoverage) Intersects(b grid.BBox) bool {
	return c.bbox.Intersects(b)
}

// BBox returns the coverage extent.
func (c *BBoxCoverage) BBox() grid.BBox {
	return c.bbox
}
