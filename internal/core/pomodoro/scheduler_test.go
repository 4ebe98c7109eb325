package pomodoro_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"thetool/internal/core/countdown"
	"thetool/internal/core/model"
	"thetool/internal/core/pomodoro"
	"thetool/internal/metrics"
	"thetool/internal/notify"
	"thetool/internal/storage"
	"thetool/internal/testutil"
)

var monday = time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)

type recordedPhase struct {
	phase string
	cause metrics.Cause
}

type recordingMetrics struct {
	mu              sync.Mutex
	phases          []recordedPhase
	focusMinutes    int
	persistFailures int
}

func (recorder *recordingMetrics) IncPhaseCompleted(_ string, phase string, cause metrics.Cause) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.phases = append(recorder.phases, recordedPhase{phase: phase, cause: cause})
}

func (recorder *recordingMetrics) AddFocusMinutes(minutes int) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.focusMinutes += minutes
}

func (recorder *recordingMetrics) IncPersistFailure(string, string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.persistFailures++
}

type harness struct {
	scheduler *pomodoro.Scheduler
	clock     *clockwork.FakeClock
	ticker    *testutil.ManualTicker
	store     *storage.MemoryStore
	sink      *testutil.RecordingSink
	metrics   *recordingMetrics
	logs      *bytes.Buffer
}

func newHarness(t *testing.T, settings model.PomodoroSettings) *harness {
	t.Helper()
	h := &harness{
		clock:   clockwork.NewFakeClockAt(monday),
		ticker:  &testutil.ManualTicker{},
		store:   storage.NewMemoryStore(),
		sink:    &testutil.RecordingSink{},
		metrics: &recordingMetrics{},
		logs:    &bytes.Buffer{},
	}
	h.scheduler = h.build(settings)
	return h
}

func (h *harness) build(settings model.PomodoroSettings) *pomodoro.Scheduler {
	logger := slog.New(slog.NewTextHandler(h.logs, nil))
	return pomodoro.New(pomodoro.Config{
		Settings: settings,
		Clock:    h.clock,
		Ticker:   h.ticker,
		Store:    h.store,
		Notifier: notify.NewDispatcher(h.sink, logger),
		Metrics:  h.metrics,
		Logger:   logger,
	})
}

// finishPhase runs the current phase to zero through a tick.
func (h *harness) finishPhase(t *testing.T) {
	t.Helper()
	h.scheduler.Start()
	require.True(t, h.scheduler.Running())
	h.clock.Advance(time.Duration(h.scheduler.Remaining()) * time.Second)
	h.ticker.Fire()
}

func manualSettings() model.PomodoroSettings {
	settings := model.DefaultPomodoroSettings()
	settings.AutoAdvance = false
	return settings
}

func TestNewStartsPausedInFocus(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroSettings())
	require.Equal(t, pomodoro.PhaseFocus, h.scheduler.Phase())
	require.Equal(t, 1500, h.scheduler.Remaining())
	require.False(t, h.scheduler.Running())
	require.Zero(t, h.scheduler.CompletedSessions())
}

func TestPhaseSequencingWithLongBreakInterval(t *testing.T) {
	h := newHarness(t, manualSettings())

	want := []pomodoro.Phase{
		pomodoro.PhaseShortBreak,
		pomodoro.PhaseFocus,
		pomodoro.PhaseShortBreak,
		pomodoro.PhaseFocus,
		pomodoro.PhaseShortBreak,
		pomodoro.PhaseFocus,
		pomodoro.PhaseLongBreak,
		pomodoro.PhaseFocus,
	}
	for i, phase := range want {
		h.finishPhase(t)
		require.Equal(t, phase, h.scheduler.Phase(), "completion %d", i+1)
		require.False(t, h.scheduler.Running())
	}
	require.Equal(t, 4, h.scheduler.CompletedSessions())
	require.Equal(t, 1500, h.scheduler.Snapshot().Countdown.TotalDurationSeconds)
}

func TestFocusCompletionCreditsStatsAndNotifies(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.finishPhase(t)

	stats := h.scheduler.Stats()
	require.Equal(t, 25, stats.FocusMinutesToday)
	require.Equal(t, 1, stats.PomodorosToday)
	require.Equal(t, "2026-05-11", stats.StatDate)
	require.Equal(t, 300, h.scheduler.Remaining())

	require.Equal(t, []testutil.Notification{{Title: "Pomodoro Timer", Body: "Focus session complete! Time for a break."}}, h.sink.Notifications())
	require.Equal(t, []int{600, 720}, h.sink.Tones())
	require.Equal(t, 25, h.metrics.focusMinutes)
	require.Equal(t, []recordedPhase{{phase: "focus", cause: metrics.CauseNatural}}, h.metrics.phases)

	h.finishPhase(t)
	require.Equal(t, 1, h.scheduler.Stats().PomodorosToday, "breaks are not credited")
	require.Equal(t, []int{600, 720, 800, 960}, h.sink.Tones())
}

func TestSoundDisabledSkipsTones(t *testing.T) {
	settings := manualSettings()
	settings.SoundEnabled = false
	h := newHarness(t, settings)
	h.finishPhase(t)
	require.Empty(t, h.sink.Tones())
	require.Len(t, h.sink.Notifications(), 1)

	require.True(t, h.scheduler.ToggleSound())
	require.True(t, h.scheduler.Settings().SoundEnabled)
}

func TestSkipDoesNotCredit(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.clock.Advance(10 * time.Minute)

	h.scheduler.Skip()
	require.Equal(t, pomodoro.PhaseShortBreak, h.scheduler.Phase())
	require.False(t, h.scheduler.Running())
	require.Equal(t, 300, h.scheduler.Remaining())
	require.Zero(t, h.scheduler.CompletedSessions())
	require.Zero(t, h.scheduler.Stats().PomodorosToday)
	require.Empty(t, h.sink.Notifications())
	require.Equal(t, []recordedPhase{{phase: "focus", cause: metrics.CauseSkipped}}, h.metrics.phases)

	h.scheduler.Skip()
	require.Equal(t, pomodoro.PhaseFocus, h.scheduler.Phase())
}

func TestAutoAdvanceStartsNextPhaseAfterDelay(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroSettings())
	h.finishPhase(t)
	require.Equal(t, pomodoro.PhaseShortBreak, h.scheduler.Phase())
	require.False(t, h.scheduler.Running())

	h.clock.Advance(2 * time.Second)
	require.Eventually(t, h.scheduler.Running, time.Second, 5*time.Millisecond)
	require.Equal(t, 300, h.scheduler.Remaining())
}

func TestSkipCancelsPendingAutoAdvance(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroSettings())
	h.finishPhase(t)
	h.scheduler.Skip()
	require.Equal(t, pomodoro.PhaseFocus, h.scheduler.Phase())

	h.clock.Advance(5 * time.Second)
	require.Never(t, h.scheduler.Running, 50*time.Millisecond, 5*time.Millisecond)
}

func TestResetCancelsPendingAutoAdvance(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroSettings())
	h.finishPhase(t)
	h.scheduler.Reset()

	require.Equal(t, pomodoro.PhaseFocus, h.scheduler.Phase())
	require.Zero(t, h.scheduler.CompletedSessions())
	require.Zero(t, h.scheduler.Stats().PomodorosToday)
	require.Equal(t, 1500, h.scheduler.Remaining())

	h.clock.Advance(5 * time.Second)
	require.Never(t, h.scheduler.Running, 50*time.Millisecond, 5*time.Millisecond)
}

func TestStartWithNoTimeLeftAdvancesFirst(t *testing.T) {
	h := newHarness(t, manualSettings())
	require.NoError(t, storage.SaveJSON(context.Background(), h.store, pomodoro.StateKey, pomodoro.Snapshot{
		Phase:     pomodoro.PhaseFocus,
		Countdown: countdown.Snapshot{TotalDurationSeconds: 1500, RemainingSeconds: 0},
	}))
	h.scheduler.Activate(context.Background())
	require.Equal(t, 0, h.scheduler.Remaining())

	h.scheduler.Start()
	require.Equal(t, pomodoro.PhaseShortBreak, h.scheduler.Phase())
	require.True(t, h.scheduler.Running())
}

func TestDailyStatsRollOver(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.finishPhase(t)
	require.Equal(t, 1, h.scheduler.Stats().PomodorosToday)

	h.clock.Advance(24 * time.Hour)
	stats := h.scheduler.Stats()
	require.Equal(t, pomodoro.DailyStats{StatDate: "2026-05-12"}, stats)

	h.scheduler.Skip()
	h.finishPhase(t)
	stats = h.scheduler.Stats()
	require.Equal(t, 1, stats.PomodorosToday)
	require.Equal(t, 25, stats.FocusMinutesToday)
	require.Equal(t, 2, h.scheduler.CompletedSessions(), "session count does not reset daily")
}

func TestApplySettingsWhilePausedReloadsPhase(t *testing.T) {
	h := newHarness(t, manualSettings())
	settings := manualSettings()
	settings.FocusTime = 50 * time.Minute
	h.scheduler.ApplySettings(settings)
	require.Equal(t, 3000, h.scheduler.Remaining())

	settings.LongBreakInterval = 0
	settings.ShortBreak = 10 * time.Second
	h.scheduler.ApplySettings(settings)
	require.Equal(t, 2, h.scheduler.Settings().LongBreakInterval)
	require.Equal(t, time.Minute, h.scheduler.Settings().ShortBreak)
}

func TestApplySettingsWhileRunningKeepsCountdown(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.clock.Advance(time.Minute)

	settings := manualSettings()
	settings.FocusTime = 50 * time.Minute
	h.scheduler.ApplySettings(settings)
	require.True(t, h.scheduler.Running())
	require.Equal(t, 1440, h.scheduler.Remaining())
}

func TestActivateCreditsFocusCompletedWhileDown(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.scheduler.Close()

	h.clock.Advance(2000 * time.Second)
	restored := h.build(manualSettings())
	restored.Activate(context.Background())

	require.Equal(t, pomodoro.PhaseShortBreak, restored.Phase())
	require.False(t, restored.Running())
	require.Equal(t, 300, restored.Remaining())
	require.Equal(t, 1, restored.CompletedSessions())
	require.Equal(t, 25, restored.Stats().FocusMinutesToday)
	require.Len(t, h.sink.Notifications(), 1)
	require.Equal(t, []recordedPhase{{phase: "focus", cause: metrics.CauseReconciled}}, h.metrics.phases)

	var persisted pomodoro.Snapshot
	found, err := storage.LoadJSON(context.Background(), h.store, pomodoro.StateKey, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, pomodoro.PhaseShortBreak, persisted.Phase)
	require.Equal(t, 1, persisted.Stats.PomodorosToday)
}

func TestActivateAtExactDeadline(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.clock.Advance(1500 * time.Second)

	restored := h.build(manualSettings())
	restored.Activate(context.Background())
	require.Equal(t, pomodoro.PhaseShortBreak, restored.Phase())
	require.Equal(t, 300, restored.Remaining())
	require.Equal(t, 1, restored.CompletedSessions())
	require.Equal(t, 25, restored.Stats().FocusMinutesToday)
}

func TestActivateResumesRunningPhase(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.scheduler.Pause()
	h.scheduler.Start()
	anchor := h.scheduler.Snapshot().Countdown.AnchorWallClock

	h.clock.Advance(700 * time.Second)
	restored := h.build(manualSettings())
	restored.Activate(context.Background())

	require.True(t, restored.Running())
	require.Equal(t, 800, restored.Remaining())
	require.Equal(t, anchor, restored.Snapshot().Countdown.AnchorWallClock)
	require.Empty(t, h.sink.Notifications())
}

func TestActivateWithoutSnapshotKeepsDefaults(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Activate(context.Background())
	require.Equal(t, pomodoro.PhaseFocus, h.scheduler.Phase())
	require.Equal(t, 1500, h.scheduler.Remaining())
}

func TestActivateIgnoresCorruptSnapshot(t *testing.T) {
	h := newHarness(t, manualSettings())
	require.NoError(t, h.store.Set(context.Background(), map[string][]byte{pomodoro.StateKey: []byte("{not json")}))
	h.scheduler.Activate(context.Background())
	require.Equal(t, 1500, h.scheduler.Remaining())
	require.Contains(t, h.logs.String(), "Ignoring unreadable pomodoro state")
}

func TestPersistFailureIsLoggedNotFatal(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.store.FailWrites(errors.New("disk full"))

	h.scheduler.Start()
	require.True(t, h.scheduler.Running())
	require.Equal(t, 1, h.metrics.persistFailures)
	require.Contains(t, h.logs.String(), "Failed to persist pomodoro state")
	require.Contains(t, h.logs.String(), "disk full")
}

func TestSubscribeReceivesCompletion(t *testing.T) {
	h := newHarness(t, manualSettings())
	events := h.scheduler.Subscribe(16)
	h.finishPhase(t)

	var completed *countdown.Event
	for len(events) > 0 {
		event := <-events
		if event.Type == countdown.EventCompleted {
			completed = &event
		}
	}
	require.NotNil(t, completed)
	require.Equal(t, "focus", completed.Phase)

	h.scheduler.Close()
	_, open := <-events
	require.False(t, open)
}

func TestApplySettingsKeepsPausedProgressWhenPhaseLengthUnchanged(t *testing.T) {
	h := newHarness(t, manualSettings())
	h.scheduler.Start()
	h.clock.Advance(900 * time.Second)
	h.scheduler.Pause()
	require.Equal(t, 600, h.scheduler.Remaining())

	settings := manualSettings()
	settings.SoundEnabled = false
	h.scheduler.ApplySettings(settings)
	require.Equal(t, 600, h.scheduler.Remaining())

	settings.AutoAdvance = true
	settings.ShortBreak = 10 * time.Minute
	h.scheduler.ApplySettings(settings)
	require.Equal(t, 600, h.scheduler.Remaining(), "another phase's length does not touch the current one")
	require.Equal(t, 10*time.Minute, h.scheduler.Settings().ShortBreak)

	settings.FocusTime = 50 * time.Minute
	h.scheduler.ApplySettings(settings)
	require.Equal(t, 3000, h.scheduler.Remaining())
}

func TestRestartKeepsPausedProgressUnderSettingsFile(t *testing.T) {
	h := newHarness(t, manualSettings())
	require.False(t, h.scheduler.ToggleSound())
	h.scheduler.Start()
	h.clock.Advance(900 * time.Second)
	h.scheduler.Pause()
	fileSettings := h.scheduler.Settings()
	h.scheduler.Close()

	restored := h.build(manualSettings())
	restored.Activate(context.Background())
	restored.ApplySettings(fileSettings)
	require.Equal(t, 600, restored.Remaining())
	require.False(t, restored.Running())
	require.False(t, restored.Settings().SoundEnabled)

	fileSettings.SoundEnabled = true
	restored.ApplySettings(fileSettings)
	require.Equal(t, 600, restored.Remaining())
}

func TestSkipFromFocusAtIntervalGoesToLongBreak(t *testing.T) {
	h := newHarness(t, manualSettings())
	snapshot := h.scheduler.Snapshot()
	snapshot.CompletedFocusSessions = 4
	require.NoError(t, storage.SaveJSON(context.Background(), h.store, pomodoro.StateKey, snapshot))
	h.scheduler.Activate(context.Background())

	h.scheduler.Skip()
	require.Equal(t, pomodoro.PhaseLongBreak, h.scheduler.Phase())
	require.Equal(t, 900, h.scheduler.Remaining())
	require.Equal(t, 4, h.scheduler.CompletedSessions())
}

func TestActivateOvershootAutoAdvancesAfterDelay(t *testing.T) {
	h := newHarness(t, model.DefaultPomodoroSettings())
	h.scheduler.Start()
	h.scheduler.Close()

	h.clock.Advance(2000 * time.Second)
	restored := h.build(model.DefaultPomodoroSettings())
	restored.Activate(context.Background())
	require.Equal(t, pomodoro.PhaseShortBreak, restored.Phase())
	require.False(t, restored.Running())
	require.Equal(t, 1, restored.CompletedSessions())

	h.clock.Advance(2 * time.Second)
	require.Eventually(t, restored.Running, time.Second, 5*time.Millisecond)
	require.Equal(t, 300, restored.Remaining())
	require.Equal(t, pomodoro.PhaseShortBreak, restored.Phase())
}

// gatedClock blocks the n-th call to Now until release is closed. Later calls pass.
type gatedClock struct {
	*clockwork.FakeClock
	mu      sync.Mutex
	calls   int
	n       int
	reached chan struct{}
	release chan struct{}
}

func (clock *gatedClock) arm(n int) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.calls = 0
	clock.n = n
	clock.reached = make(chan struct{})
	clock.release = make(chan struct{})
}

func (clock *gatedClock) Now() time.Time {
	clock.mu.Lock()
	clock.calls++
	block := clock.n > 0 && clock.calls == clock.n
	if block {
		clock.n = 0
	}
	reached, release := clock.reached, clock.release
	clock.mu.Unlock()
	if block {
		close(reached)
		<-release
	}
	return clock.FakeClock.Now()
}

// finishBehindGate runs the focus phase to zero on another goroutine and holds the
// completion handler at its first clock read. The tick itself reads the clock twice.
func finishBehindGate(t *testing.T, h *harness, clock *gatedClock, scheduler *pomodoro.Scheduler) chan struct{} {
	t.Helper()
	scheduler.Start()
	clock.Advance(1500 * time.Second)
	clock.arm(3)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ticker.Fire()
	}()
	<-clock.reached
	return done
}

func gatedScheduler(h *harness) (*pomodoro.Scheduler, *gatedClock) {
	clock := &gatedClock{FakeClock: h.clock}
	logger := slog.New(slog.NewTextHandler(h.logs, nil))
	return pomodoro.New(pomodoro.Config{
		Settings: manualSettings(),
		Clock:    clock,
		Ticker:   h.ticker,
		Store:    h.store,
		Notifier: notify.NewDispatcher(h.sink, logger),
		Metrics:  h.metrics,
		Logger:   logger,
	}), clock
}

func TestSkipDuringCompletionDropsStaleCompletion(t *testing.T) {
	h := newHarness(t, manualSettings())
	scheduler, clock := gatedScheduler(h)
	done := finishBehindGate(t, h, clock, scheduler)

	scheduler.Skip()
	close(clock.release)
	<-done

	require.Equal(t, pomodoro.PhaseShortBreak, scheduler.Phase())
	require.Equal(t, 300, scheduler.Remaining())
	require.Zero(t, scheduler.CompletedSessions())
	require.Empty(t, h.sink.Notifications())
	require.Equal(t, []recordedPhase{{phase: "focus", cause: metrics.CauseSkipped}}, h.metrics.phases)
}

func TestResetDuringCompletionDropsStaleCompletion(t *testing.T) {
	h := newHarness(t, manualSettings())
	scheduler, clock := gatedScheduler(h)
	done := finishBehindGate(t, h, clock, scheduler)

	scheduler.Reset()
	close(clock.release)
	<-done

	require.Equal(t, pomodoro.PhaseFocus, scheduler.Phase())
	require.Equal(t, 1500, scheduler.Remaining())
	require.Zero(t, scheduler.CompletedSessions())
	require.Zero(t, scheduler.Stats().PomodorosToday)
	require.Empty(t, h.sink.Notifications())
}

func TestCompletionBehindGateStillCredits(t *testing.T) {
	h := newHarness(t, manualSettings())
	scheduler, clock := gatedScheduler(h)
	done := finishBehindGate(t, h, clock, scheduler)
	close(clock.release)
	<-done

	require.Equal(t, pomodoro.PhaseShortBreak, scheduler.Phase())
	require.Equal(t, 1, scheduler.CompletedSessions())
	require.Len(t, h.sink.Notifications(), 1)
}
