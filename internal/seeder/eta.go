package seeder

import (
	"fmt"
	"time"
)

const (
	etaTicks = 10000
	etaDecay = 0.999
)

// ETA estimates the remaining wall-clock time of a seed run from the rate of
// progress updates. Progress is modeled as a fixed number of ticks; each
// Update spreads the elapsed time over the ticks passed since the previous
// call and folds them into an exponentially decayed average, so recent
// throughput dominates the estimate.
//
// Not safe for concurrent use: the traversal goroutine owns it, workers only
// see formatted snapshots. Callers must pass monotonically non-decreasing
// progress values.
type ETA struct {
	clock       Clock
	lastTick    time.Time
	tickCount   int
	durationSum float64
	durationDiv float64
}

// NewETA builds an estimator reading time from clock.
func NewETA(clock Clock) *ETA {
	return &ETA{
		clock:    clock,
		lastTick: clock.Now(),
	}
}

// Update folds the progress delta since the previous call into the smoothed
// rate. progress is the cumulative fraction in [0, 1].
func (e *ETA) Update(progress float64) {
	missing := int(progress*etaTicks) - e.tickCount
	if missing <= 0 {
		return
	}
	now := e.clock.Now()
	perTick := now.Sub(e.lastTick).Seconds() / float64(missing)
	for ; missing > 0; missing-- {
		e.durationSum *= etaDecay
		e.durationDiv *= etaDecay
		e.durationSum += perTick
		e.durationDiv++
		e.tickCount++
	}
	e.lastTick = now
}

// Remaining returns the estimated time to completion. ok is false before the
// first observable progress delta.
func (e *ETA) Remaining() (time.Duration, bool) {
	if e.tickCount == 0 {
		return 0, false
	}
	perTick := e.durationSum / e.durationDiv
	left := float64(etaTicks-e.tickCount) * perTick
	return time.Duration(left * float64(time.Second)), true
}

// String formats the estimate as a coarse duration, or "n/a" when no delta
// has been observed yet.
func (e *ETA) String() string {
	remaining, ok := e.Remaining()
	if !ok {
		return "n/a"
	}
	if remaining < 0 {
		remaining = 0
	}
	switch {
	case remaining >= time.Hour:
		return fmt.Sprintf("%dh%02dm", int(remaining.Hours()), int(remaining.Minutes())%60)
	case remaining >= time.Minute:
		return fmt.Sprintf("%dm%02ds", int(remaining.Minutes()), int(remaining.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(remaining.Seconds()))
	}
}
