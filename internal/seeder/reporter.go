package seeder

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Status is the externally visible snapshot of the current seed run, served
// by the optional status API.
type Status struct {
	Task     string  `json:"task"`
	Level    int     `json:"level"`
	Progress float64 `json:"progress"`
	Tiles    int     `json:"tiles"`
	ETA      string  `json:"eta"`
}

// Reporter writes the operator-facing progress lines and keeps the latest
// Status for concurrent readers. Output stays line-compatible with the
// existing operator workflow.
type Reporter struct {
	out   io.Writer
	clock Clock

	mu     sync.Mutex
	status Status
}

// NewReporter writes to out, or os.Stdout when out is nil.
func NewReporter(out io.Writer, clock Clock) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out, clock: clock}
}

func (r *Reporter) timestamp() string {
	return r.clock.Now().Format("15:04:05")
}

// TaskHeader announces a task before its traversal starts.
func (r *Reporter) TaskHeader(task *SeedTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Status{Task: task.Name, ETA: "n/a"}
	fmt.Fprintf(r.out, "[%s] seeding '%s' levels %d-%d: %s\n",
		r.timestamp(), task.Name,
		task.Levels[0], task.Levels[len(task.Levels)-1],
		task.Coverage.BBox())
}

// Progress prints one per-level progress line: level, percentage, clipped
// bbox, cumulative tile count, ETA.
func (r *Reporter) Progress(st Status, bbox fmt.Stringer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = st
	fmt.Fprintf(r.out, "[%s] %2d %6.2f%% %s (%d tiles) ETA: %s\n",
		r.timestamp(), st.Level, st.Progress*100, bbox, st.Tiles, st.ETA)
}

// Batch prints one per-batch line from a worker's snapshot.
func (r *Reporter) Batch(s ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] %6.2f%% %s \tETA: %s\n",
		r.timestamp(), s.Progress*100, s.Path, s.ETA)
}

// Status returns the most recent snapshot. Safe for concurrent use.
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
