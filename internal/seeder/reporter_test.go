package seeder

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zstadler/mapproxy/internal/grid"
)

func TestReporterProgressLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 34, 56, 0, time.UTC))
	r := NewReporter(&buf, clock)

	r.Progress(Status{
		Task:     "world",
		Level:    3,
		Progress: 0.4217,
		Tiles:    128,
		ETA:      "5m00s",
	}, grid.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90})

	require.Equal(t,
		"[12:34:56]  3  42.17% -180.00000, -90.00000, 180.00000, 90.00000 (128 tiles) ETA: 5m00s\n",
		buf.String())

	// The served status snapshot tracks the last line.
	st := r.Status()
	assert.Equal(t, "world", st.Task)
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, 128, st.Tiles)
}

func TestReporterBatchLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	clock := newFakeClock(time.Date(2024, 3, 1, 8, 0, 5, 0, time.UTC))
	r := NewReporter(&buf, clock)

	r.Batch(ProgressSnapshot{Path: ".oO", Progress: 0.125, ETA: "n/a"})

	require.Equal(t, "[08:00:05]  12.50% .oO \tETA: n/a\n", buf.String())
}

func TestReporterTaskHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	clock := newFakeClock(time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC))
	r := NewReporter(&buf, clock)

	mg := worldGrid(t, 4, grid.Size{Cols: 1, Rows: 1})
	task := &SeedTask{
		Name:     "europe",
		Grid:     mg,
		Coverage: &stubCoverage{bbox: grid.BBox{MinX: -10, MinY: 35, MaxX: 30, MaxY: 70}},
		Levels:   []int{0, 1, 2, 3},
		Tiles:    newFakeTiles(),
	}
	r.TaskHeader(task)

	require.Equal(t,
		"[09:15:00] seeding 'europe' levels 0-3: -10.00000, 35.00000, 30.00000, 70.00000\n",
		buf.String())
	assert.Equal(t, "europe", r.Status().Task)
	assert.Equal(t, "n/a", r.Status().ETA)
}
