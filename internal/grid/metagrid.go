package grid

// ChildTile is one slot of a level subdivision. Valid is false when the grid
// already knows the slot cannot intersect the requested box, independent of
// any coverage geometry.
type ChildTile struct {
	Coord TileCoord
	BBox  BBox
	Valid bool
}

// MetaGrid groups raw tiles into fixed-size blocks so one fetch unit covers
// several tiles. Meta coordinates address blocks: meta tile (x, y, level)
// spans raw tiles [x*cols, (x+1)*cols) by [y*rows, (y+1)*rows).
type MetaGrid struct {
	grid *TileGrid
	meta Size
}

// NewMetaGrid wraps grid with the given meta-tile footprint. A 1x1 footprint
// degrades to plain per-tile fetching.
func NewMetaGrid(g *TileGrid, meta Size) *MetaGrid {
	if meta.Cols <= 0 {
		meta.Cols = 1
	}
	if meta.Rows <= 0 {
		meta.Rows = 1
	}
	return &MetaGrid{grid: g, meta: meta}
}

// Footprint returns the number of raw tiles one meta tile covers.
func (m *MetaGrid) Footprint() Size {
	return m.meta
}

// Extent returns the overall grid bounding box.
func (m *MetaGrid) Extent() BBox {
	return m.grid.Extent()
}

// MetaTileBBox returns the bounding box of a meta tile, clipped to the grid
// extent on the far edges.
func (m *MetaGrid) MetaTileBBox(c TileCoord) BBox {
	n := m.grid.tilesAtLevel(c.Level)
	x0 := c.X * m.meta.Cols
	y0 := c.Y * m.meta.Rows
	x1 := min(x0+m.meta.Cols, n) - 1
	y1 := min(y0+m.meta.Rows, n) - 1
	first := m.grid.TileBBox(TileCoord{X: x0, Y: y0, Level: c.Level})
	last := m.grid.TileBBox(TileCoord{X: x1, Y: y1, Level: c.Level})
	return BBox{MinX: first.MinX, MinY: first.MinY, MaxX: last.MaxX, MaxY: last.MaxY}
}

// TilesInMeta expands a meta coordinate to the raw tile coordinates it covers.
func (m *MetaGrid) TilesInMeta(c TileCoord) []TileCoord {
	n := m.grid.tilesAtLevel(c.Level)
	x0 := c.X * m.meta.Cols
	y0 := c.Y * m.meta.Rows
	coords := make([]TileCoord, 0, m.meta.Cols*m.meta.Rows)
	for y := y0; y < y0+m.meta.Rows && y < n; y++ {
		for x := x0; x < x0+m.meta.Cols && x < n; x++ {
			coords = append(coords, TileCoord{X: x, Y: y, Level: c.Level})
		}
	}
	return coords
}

// AffectedLevelTiles subdivides bbox at level into meta tiles. It returns the
// bbox snapped to the meta-tile boundaries, the (cols, rows) of the
// subdivision, and one ChildTile per slot in row-major order.
func (m *MetaGrid) AffectedLevelTiles(bbox BBox, level int) (BBox, Size, []ChildTile) {
	x0, y0, x1, y1 := m.grid.tileRange(bbox, level)
	if x1 <= x0 || y1 <= y0 {
		return BBox{}, Size{}, nil
	}

	mx0, my0 := x0/m.meta.Cols, y0/m.meta.Rows
	mx1 := (x1 + m.meta.Cols - 1) / m.meta.Cols
	my1 := (y1 + m.meta.Rows - 1) / m.meta.Rows

	size := Size{Cols: mx1 - mx0, Rows: my1 - my0}
	children := make([]ChildTile, 0, size.Cols*size.Rows)
	var snapped BBox
	first := true
	for my := my0; my < my1; my++ {
		for mx := mx0; mx < mx1; mx++ {
			coord := TileCoord{X: mx, Y: my, Level: level}
			mb := m.MetaTileBBox(coord)
			if !mb.Intersects(bbox) {
				children = append(children, ChildTile{})
				continue
			}
			if first {
				snapped = mb
				first = false
			} else {
				snapped = union(snapped, mb)
			}
			children = append(children, ChildTile{Coord: coord, BBox: mb, Valid: true})
		}
	}
	if first {
		return BBox{}, Size{}, nil
	}
	return snapped, size, children
}

func union(a, b BBox) BBox {
	return BBox{
		MinX: min(a.MinX, b.MinX),
		MinY: min(a.MinY, b.MinY),
		MaxX: max(a.MaxX, b.MaxX),
		MaxY: max(a.MaxY, b.MaxY),
	}
}
