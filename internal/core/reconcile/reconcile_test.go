package reconcile_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"thetool/internal/core/countdown"
	"thetool/internal/core/reconcile"
	"thetool/internal/testutil"
)

var t0 = time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)

func TestResolvePausedSnapshotVerbatim(t *testing.T) {
	resolution := reconcile.Resolve(countdown.Snapshot{
		TotalDurationSeconds: 600,
		RemainingSeconds:     245,
		AnchorWallClock:      t0.Add(-time.Hour),
	}, t0)
	require.Equal(t, reconcile.Resolution{Remaining: 245}, resolution)
}

func TestResolveRunningWithinDuration(t *testing.T) {
	resolution := reconcile.Resolve(countdown.Snapshot{
		TotalDurationSeconds: 600,
		RemainingSeconds:     600,
		Running:              true,
		AnchorWallClock:      t0,
	}, t0.Add(175*time.Second+900*time.Millisecond))
	require.Equal(t, reconcile.Resolution{Remaining: 425, Running: true}, resolution)
}

func TestResolveRunningOvershoot(t *testing.T) {
	for _, delta := range []time.Duration{600 * time.Second, 601 * time.Second, 48 * time.Hour} {
		resolution := reconcile.Resolve(countdown.Snapshot{
			TotalDurationSeconds: 600,
			RemainingSeconds:     300,
			Running:              true,
			AnchorWallClock:      t0,
		}, t0.Add(delta))
		require.Equal(t, reconcile.Resolution{Completed: true}, resolution, "delta %s", delta)
	}
}

func TestResolveRunningWithoutAnchorStaysPaused(t *testing.T) {
	resolution := reconcile.Resolve(countdown.Snapshot{
		TotalDurationSeconds: 60,
		RemainingSeconds:     30,
		Running:              true,
	}, t0)
	require.Equal(t, reconcile.Resolution{Remaining: 30}, resolution)
}

func TestResolveClampsCorruptValues(t *testing.T) {
	resolution := reconcile.Resolve(countdown.Snapshot{
		TotalDurationSeconds: 60,
		RemainingSeconds:     900,
	}, t0)
	require.Equal(t, 60, resolution.Remaining)

	resolution = reconcile.Resolve(countdown.Snapshot{
		TotalDurationSeconds: 60,
		RemainingSeconds:     60,
		Running:              true,
		AnchorWallClock:      t0.Add(time.Hour),
	}, t0)
	require.Equal(t, reconcile.Resolution{Remaining: 60, Running: true}, resolution, "anchor in the future counts as no elapsed time")
}

func TestApplySuspendResumeFidelity(t *testing.T) {
	const duration = 1500
	for _, delta := range []int{0, 1, 700, duration - 1} {
		clock := clockwork.NewFakeClockAt(t0)
		source := countdown.New(countdown.Config{Clock: clock, Ticker: &testutil.ManualTicker{}})
		source.SetDuration(duration)
		source.Start()
		snapshot := source.Snapshot()

		clock.Advance(time.Duration(delta) * time.Second)
		restored := countdown.New(countdown.Config{Clock: clock, Ticker: &testutil.ManualTicker{}})
		completions := 0
		restored.SetOnComplete(func() { completions++ })

		resolution := reconcile.Apply(restored, snapshot)
		require.True(t, resolution.Running)
		require.True(t, restored.Running())
		require.Equal(t, duration-delta, restored.Remaining())
		require.Equal(t, t0, restored.Anchor())
		require.Zero(t, completions)
	}
}

func TestApplyOvershootCompletesOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	ticker := &testutil.ManualTicker{}
	engine := countdown.New(countdown.Config{Clock: clock, Ticker: ticker})
	completions := 0
	engine.SetOnComplete(func() { completions++ })

	clock.Advance(2000 * time.Second)
	resolution := reconcile.Apply(engine, countdown.Snapshot{
		TotalDurationSeconds: 1500,
		RemainingSeconds:     1500,
		Running:              true,
		AnchorWallClock:      t0,
	})

	require.True(t, resolution.Completed)
	require.Equal(t, 1, completions)
	require.False(t, engine.Running())
	require.Equal(t, 0, engine.Remaining())
	require.Equal(t, 0, ticker.Active())
}

func TestApplyPausedLoadsVerbatim(t *testing.T) {
	engine := countdown.New(countdown.Config{Clock: clockwork.NewFakeClockAt(t0), Ticker: &testutil.ManualTicker{}})
	reconcile.Apply(engine, countdown.Snapshot{TotalDurationSeconds: 300, RemainingSeconds: 12})
	require.False(t, engine.Running())
	require.Equal(t, 300, engine.Total())
	require.Equal(t, 12, engine.Remaining())
}

func TestLatest(t *testing.T) {
	t1 := t0
	t2 := t0.Add(time.Minute)

	tests := []struct {
		name   string
		local  reconcile.Candidate
		synced reconcile.Candidate
		want   reconcile.Source
	}{
		{"synced newer wins", reconcile.Candidate{Present: true, Modified: t1}, reconcile.Candidate{Present: true, Modified: t2}, reconcile.SourceSynced},
		{"local newer wins", reconcile.Candidate{Present: true, Modified: t2}, reconcile.Candidate{Present: true, Modified: t1}, reconcile.SourceLocal},
		{"tie favors local", reconcile.Candidate{Present: true, Modified: t1}, reconcile.Candidate{Present: true, Modified: t1}, reconcile.SourceLocal},
		{"synced timestamp missing", reconcile.Candidate{Present: true, Modified: t1}, reconcile.Candidate{Present: true}, reconcile.SourceLocal},
		{"synced absent", reconcile.Candidate{Present: true, Modified: t1}, reconcile.Candidate{}, reconcile.SourceLocal},
		{"both absent", reconcile.Candidate{}, reconcile.Candidate{}, reconcile.SourceLocal},
		{"local absent", reconcile.Candidate{}, reconcile.Candidate{Present: true, Modified: t1}, reconcile.SourceSynced},
		{"local timestamp missing", reconcile.Candidate{Present: true}, reconcile.Candidate{Present: true, Modified: t1}, reconcile.SourceSynced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, reconcile.Latest(tt.local, tt.synced))
		})
	}
}
