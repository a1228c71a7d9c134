// Package grid implements the quadtree tile grid the seeder walks.
package grid

import "fmt"

// BBox is an axis-aligned bounding box in grid coordinates.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool {
	return b.MinX < b.MaxX && b.MinY < b.MaxY
}

// Intersects reports whether the two boxes share any area.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX < o.MaxX && b.MaxX > o.MinX &&
		b.MinY < o.MaxY && b.MaxY > o.MinY
}

// Contains reports whether o lies entirely within b.
func (b BBox) Contains(o BBox) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX &&
		o.MinY >= b.MinY && o.MaxY <= b.MaxY
}

// Clip returns the part of o that lies within b.
func (b BBox) Clip(o BBox) BBox {
	out := BBox{
		MinX: max(b.MinX, o.MinX),
		MinY: max(b.MinY, o.MinY),
		MaxX: min(b.MaxX, o.MaxX),
		MaxY: min(b.MaxY, o.MaxY),
	}
	return out
}

// String renders the box in the comma-separated form used by progress output.
func (b BBox) String() string {
	return fmt.Sprintf("%.5f, %.5f, %.5f, %.5f", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
