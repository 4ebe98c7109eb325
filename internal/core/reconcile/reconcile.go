// Package reconcile rebuilds in-memory countdown state from persisted snapshots and chooses
// between divergent copies held by the local and synced stores.
package reconcile

import (
	"time"

	"thetool/internal/core/countdown"
)

// Resolution describes the state a snapshot reconstructs to at a given instant.
type Resolution struct {
	Remaining int
	Running   bool
	// Completed is set when a running snapshot ran out while the host was inactive.
	Completed bool
}

// Resolve applies elapsed wall-clock time to snapshot without touching any engine.
func Resolve(snapshot countdown.Snapshot, now time.Time) Resolution {
	total := countdown.ClampSeconds(snapshot.TotalDurationSeconds)
	remaining := countdown.ClampSeconds(snapshot.RemainingSeconds)
	if remaining > total {
		remaining = total
	}
	if !snapshot.Running {
		return Resolution{Remaining: remaining}
	}
	if snapshot.AnchorWallClock.IsZero() {
		// A running flag without an anchor cannot be measured; keep the saved value paused.
		return Resolution{Remaining: remaining}
	}

	elapsed := int(now.Sub(snapshot.AnchorWallClock) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	trueRemaining := total - elapsed
	if trueRemaining <= 0 {
		return Resolution{Remaining: 0, Completed: true}
	}
	if trueRemaining > total {
		trueRemaining = total
	}
	return Resolution{Remaining: trueRemaining, Running: true}
}

// Apply loads engine from snapshot. A snapshot that completed during downtime runs the
// engine's completion handler synchronously, so the phase is credited exactly once.
func Apply(engine *countdown.Engine, snapshot countdown.Snapshot) Resolution {
	resolution := Resolve(snapshot, engine.Clock().Now())
	total := snapshot.TotalDurationSeconds
	switch {
	case resolution.Completed:
		engine.Load(total, total)
		engine.CompleteNow()
	case resolution.Running:
		engine.ResumeFrom(total, resolution.Remaining, snapshot.AnchorWallClock)
	default:
		engine.Load(total, resolution.Remaining)
	}
	return resolution
}
