package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var world = BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

func newWorldGrid(t *testing.T, levels int) *TileGrid {
	t.Helper()
	g, err := NewTileGrid(world, levels)
	require.NoError(t, err)
	return g
}

func TestNewTileGridRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := NewTileGrid(BBox{MinX: 10, MinY: 0, MaxX: -10, MaxY: 10}, 4)
	require.Error(t, err)

	_, err = NewTileGrid(world, 0)
	require.Error(t, err)
}

func TestTileCoordString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3/5/2", TileCoord{X: 5, Y: 2, Level: 3}.String())
}

func TestTileBBox(t *testing.T) {
	t.Parallel()

	g := newWorldGrid(t, 4)

	// Level 0 is the whole extent.
	require.Equal(t, world, g.TileBBox(TileCoord{Level: 0}))

	// Level 1 splits into four quadrants; y grows north.
	assert.Equal(t, BBox{MinX: -180, MinY: -90, MaxX: 0, MaxY: 0},
		g.TileBBox(TileCoord{X: 0, Y: 0, Level: 1}))
	assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 180, MaxY: 90},
		g.TileBBox(TileCoord{X: 1, Y: 1, Level: 1}))
	assert.Equal(t, BBox{MinX: -180, MinY: 0, MaxX: 0, MaxY: 90},
		g.TileBBox(TileCoord{X: 0, Y: 1, Level: 1}))
}

func TestTileRange(t *testing.T) {
	t.Parallel()

	g := newWorldGrid(t, 4)

	// The full extent covers every tile.
	x0, y0, x1, y1 := g.tileRange(world, 2)
	assert.Equal(t, [4]int{0, 0, 4, 4}, [4]int{x0, y0, x1, y1})

	// A box inside one tile selects exactly that tile.
	x0, y0, x1, y1 = g.tileRange(BBox{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}, 2)
	assert.Equal(t, [4]int{2, 2, 3, 3}, [4]int{x0, y0, x1, y1})

	// Boxes beyond the extent clamp instead of overflowing.
	x0, y0, x1, y1 = g.tileRange(BBox{MinX: -400, MinY: -200, MaxX: 400, MaxY: 200}, 1)
	assert.Equal(t, [4]int{0, 0, 2, 2}, [4]int{x0, y0, x1, y1})

	// A fully disjoint box yields an empty range.
	x0, y0, x1, y1 = g.tileRange(BBox{MinX: 400, MinY: 100, MaxX: 500, MaxY: 200}, 1)
	assert.Equal(t, [4]int{0, 0, 0, 0}, [4]int{x0, y0, x1, y1})
}
