package grid

import (
	"fmt"
	"math"
)

// TileCoord addresses a single tile. Level 0 is the coarsest level; level n
// divides the grid extent into 2^n by 2^n tiles.
type TileCoord struct {
	X, Y, Level int
}

// String renders the coordinate as level/x/y.
func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Level, c.X, c.Y)
}

// Size is a 2-D tile count.
type Size struct {
	Cols, Rows int
}

// TileGrid is a power-of-two quadtree grid over a fixed extent.
type TileGrid struct {
	extent BBox
	levels int
}

// NewTileGrid builds a grid over extent with the given number of levels.
func NewTileGrid(extent BBox, levels int) (*TileGrid, error) {
	if !extent.Valid() {
		return nil, fmt.Errorf("grid extent %v is inverted", extent)
	}
	if levels <= 0 {
		return nil, fmt.Errorf("grid needs at least one level, got %d", levels)
	}
	return &TileGrid{extent: extent, levels: levels}, nil
}

// Extent returns the overall grid bounding box.
func (g *TileGrid) Extent() BBox {
	return g.extent
}

// Levels returns the number of zoom levels.
func (g *TileGrid) Levels() int {
	return g.levels
}

func (g *TileGrid) tilesAtLevel(level int) int {
	return 1 << uint(level)
}

// TileBBox returns the bounding box of a single tile.
func (g *TileGrid) TileBBox(c TileCoord) BBox {
	n := float64(g.tilesAtLevel(c.Level))
	w := (g.extent.MaxX - g.extent.MinX) / n
	h := (g.extent.MaxY - g.extent.MinY) / n
	return BBox{
		MinX: g.extent.MinX + float64(c.X)*w,
		MinY: g.extent.MinY + float64(c.Y)*h,
		MaxX: g.extent.MinX + float64(c.X+1)*w,
		MaxY: g.extent.MinY + float64(c.Y+1)*h,
	}
}

// tileRange returns the half-open index range [x0,x1)x[y0,y1) of tiles at
// level that touch bbox, clamped to the grid. An empty range means bbox lies
// outside the grid extent.
func (g *TileGrid) tileRange(bbox BBox, level int) (x0, y0, x1, y1 int) {
	clipped := g.extent.Clip(bbox)
	if !clipped.Valid() {
		return 0, 0, 0, 0
	}

	n := g.tilesAtLevel(level)
	w := (g.extent.MaxX - g.extent.MinX) / float64(n)
	h := (g.extent.MaxY - g.extent.MinY) / float64(n)

	x0 = clampIdx(int(math.Floor((clipped.MinX-g.extent.MinX)/w)), 0, n-1)
	y0 = clampIdx(int(math.Floor((clipped.MinY-g.extent.MinY)/h)), 0, n-1)
	x1 = clampIdx(int(math.Ceil((clipped.MaxX-g.extent.MinX)/w)), x0+1, n)
	y1 = clampIdx(int(math.Ceil((clipped.MaxY-g.extent.MinY)/h)), y0+1, n)
	return x0, y0, x1, y1
}

func clampIdx(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
