package pomodoro

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"thetool/internal/core/countdown"
	"thetool/internal/core/model"
	"thetool/internal/core/reconcile"
	"thetool/internal/logfields"
	"thetool/internal/metrics"
	"thetool/internal/notify"
	"thetool/internal/storage"
)

const (
	// StateKey is the store key holding the scheduler snapshot.
	StateKey = "pomodoroState"

	widgetName          = "pomodoro"
	notificationTitle   = "Pomodoro Timer"
	defaultAdvanceDelay = 2 * time.Second
	persistTimeout      = 5 * time.Second
)

// Config contains runtime options for a Scheduler.
type Config struct {
	Settings     model.PomodoroSettings
	TickInterval time.Duration
	// AdvanceDelay separates a natural completion from the automatic start of the next phase.
	AdvanceDelay time.Duration
	Clock        clockwork.Clock
	Ticker       countdown.Ticker
	Store        storage.Store
	StoreName    string
	Notifier     *notify.Dispatcher
	Metrics      metrics.Recorder
	Logger       *slog.Logger
}

// Scheduler sequences focus and break phases on one countdown engine.
type Scheduler struct {
	persistMu   sync.Mutex
	mu          sync.Mutex
	options     Config
	engine      *countdown.Engine
	settings    model.PomodoroSettings
	phase       Phase
	completed   int
	stats       DailyStats
	restoring   bool
	broadcaster countdown.Broadcaster
}

// New creates a scheduler paused at the start of a focus phase.
func New(options Config) *Scheduler {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.AdvanceDelay <= 0 {
		options.AdvanceDelay = defaultAdvanceDelay
	}
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Metrics == nil {
		options.Metrics = metrics.NoopRecorder{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.StoreName == "" {
		options.StoreName = "local"
	}
	options.Logger = options.Logger.With(logfields.Widget(widgetName))

	scheduler := &Scheduler{
		options:  options,
		settings: options.Settings.Clamped(),
		phase:    PhaseFocus,
		stats:    freshStats(options.Clock.Now()),
	}
	scheduler.engine = countdown.New(countdown.Config{
		TickInterval: options.TickInterval,
		Clock:        options.Clock,
		Ticker:       options.Ticker,
		Logger:       options.Logger,
	})
	scheduler.engine.SetOnRunComplete(scheduler.handleComplete)
	scheduler.engine.SetOnTick(scheduler.handleTick)
	scheduler.engine.SetDuration(scheduler.phaseSecondsLocked())
	return scheduler
}

// Activate restores the persisted snapshot, crediting any phase that finished while the
// process was down. A missing or unreadable snapshot leaves the defaults in place.
func (scheduler *Scheduler) Activate(ctx context.Context) {
	if scheduler.options.Store == nil {
		return
	}
	var snapshot Snapshot
	found, err := storage.LoadJSON(ctx, scheduler.options.Store, StateKey, &snapshot)
	if err != nil {
		scheduler.options.Logger.Warn("Ignoring unreadable pomodoro state", logfields.Error(err))
		return
	}
	if !found {
		return
	}

	scheduler.mu.Lock()
	scheduler.settings = snapshot.Settings.toModel().Clamped()
	scheduler.phase = snapshot.Phase
	if !scheduler.phase.Valid() {
		scheduler.phase = PhaseFocus
	}
	scheduler.completed = max(snapshot.CompletedFocusSessions, 0)
	scheduler.stats = snapshot.Stats
	scheduler.restoring = true
	scheduler.mu.Unlock()

	resolution := reconcile.Apply(scheduler.engine, snapshot.Countdown)

	scheduler.mu.Lock()
	scheduler.restoring = false
	phase := scheduler.phase
	scheduler.mu.Unlock()

	scheduler.options.Logger.Info("Pomodoro state restored",
		logfields.Phase(string(phase)),
		logfields.Remaining(scheduler.engine.Remaining()),
		slog.Bool("running", resolution.Running),
		slog.Bool("completed_while_inactive", resolution.Completed))

	scheduler.persist()
	scheduler.emitState()
}

// Start runs the current phase. A phase with no time left is advanced first.
func (scheduler *Scheduler) Start() {
	scheduler.mu.Lock()
	if !scheduler.engine.Running() && scheduler.engine.Remaining() <= 0 {
		scheduler.advanceLocked()
	}
	scheduler.mu.Unlock()

	scheduler.engine.Start()
	scheduler.persist()
	scheduler.emitState()
}

// Pause freezes the current phase.
func (scheduler *Scheduler) Pause() {
	if !scheduler.engine.Running() {
		return
	}
	// The engine may run the completion handler, which takes the scheduler lock.
	scheduler.engine.Pause()
	scheduler.persist()
	scheduler.emitState()
}

// Skip abandons the current phase without crediting it and leaves the next phase paused.
func (scheduler *Scheduler) Skip() {
	scheduler.mu.Lock()
	finished := scheduler.phase
	scheduler.engine.Stop()
	scheduler.advanceLocked()
	next := scheduler.phase
	scheduler.mu.Unlock()

	scheduler.options.Metrics.IncPhaseCompleted(widgetName, string(finished), metrics.CauseSkipped)
	scheduler.options.Logger.Info("Pomodoro phase skipped",
		logfields.Phase(string(finished)),
		slog.String("next_phase", string(next)))

	scheduler.persist()
	scheduler.emitState()
}

// Reset returns to a paused focus phase and clears the session count and daily stats.
func (scheduler *Scheduler) Reset() {
	scheduler.mu.Lock()
	scheduler.engine.Stop()
	scheduler.phase = PhaseFocus
	scheduler.completed = 0
	scheduler.stats = freshStats(scheduler.options.Clock.Now())
	scheduler.engine.SetDuration(scheduler.phaseSecondsLocked())
	scheduler.mu.Unlock()

	scheduler.persist()
	scheduler.emitState()
}

// ApplySettings clamps and installs settings. When paused and the current phase's length
// changed, the phase restarts with its new duration; otherwise remaining time is kept.
func (scheduler *Scheduler) ApplySettings(settings model.PomodoroSettings) {
	settings = settings.Clamped()

	scheduler.mu.Lock()
	if settings == scheduler.settings {
		scheduler.mu.Unlock()
		return
	}
	previous := scheduler.phaseSecondsLocked()
	scheduler.settings = settings
	if !scheduler.engine.Running() && scheduler.phaseSecondsLocked() != previous {
		scheduler.engine.SetDuration(scheduler.phaseSecondsLocked())
	}
	scheduler.mu.Unlock()

	scheduler.persist()
	scheduler.emitState()
}

// ToggleSound flips the completion tone and returns the new setting.
func (scheduler *Scheduler) ToggleSound() bool {
	scheduler.mu.Lock()
	scheduler.settings.SoundEnabled = !scheduler.settings.SoundEnabled
	enabled := scheduler.settings.SoundEnabled
	scheduler.mu.Unlock()

	scheduler.persist()
	return enabled
}

// Settings returns the active settings.
func (scheduler *Scheduler) Settings() model.PomodoroSettings {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.settings
}

// Phase returns the current phase.
func (scheduler *Scheduler) Phase() Phase {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.phase
}

// CompletedSessions returns the number of naturally completed focus phases.
func (scheduler *Scheduler) CompletedSessions() int {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.completed
}

// Stats returns today's statistics, rolling them over first if the day has changed.
func (scheduler *Scheduler) Stats() DailyStats {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	scheduler.stats.rollover(scheduler.options.Clock.Now())
	return scheduler.stats
}

// Remaining returns the seconds left in the current phase.
func (scheduler *Scheduler) Remaining() int {
	return scheduler.engine.Remaining()
}

// Running reports whether the current phase is ticking.
func (scheduler *Scheduler) Running() bool {
	return scheduler.engine.Running()
}

// Subscribe registers a new observer channel.
func (scheduler *Scheduler) Subscribe(buffer int) <-chan countdown.Event {
	return scheduler.broadcaster.Subscribe(buffer)
}

// Close persists the final state, stops ticking and closes observers. A running phase is
// saved as running so that it keeps counting while the process is gone.
func (scheduler *Scheduler) Close() {
	scheduler.persist()
	scheduler.engine.Stop()
	scheduler.broadcaster.Close()
}

// Snapshot captures the scheduler for persistence.
func (scheduler *Scheduler) Snapshot() Snapshot {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return Snapshot{
		Settings:               settingsRecordFrom(scheduler.settings),
		Phase:                  scheduler.phase,
		CompletedFocusSessions: scheduler.completed,
		Countdown:              scheduler.engine.Snapshot(),
		Stats:                  scheduler.stats,
	}
}

// handleComplete credits and advances the phase that reached zero. A Skip, Reset or
// settings reload that got the lock first has already replaced that run, so the completion
// is dropped.
func (scheduler *Scheduler) handleComplete(run uint64) {
	now := scheduler.options.Clock.Now()

	scheduler.mu.Lock()
	if run != scheduler.engine.Run() {
		phase := scheduler.phase
		scheduler.mu.Unlock()
		scheduler.options.Logger.Debug("Dropping superseded pomodoro completion", logfields.Phase(string(phase)))
		return
	}
	finished := scheduler.phase
	credited := 0
	if finished == PhaseFocus {
		scheduler.stats.rollover(now)
		scheduler.completed++
		credited = int(scheduler.settings.FocusTime / time.Minute)
		scheduler.stats.FocusMinutesToday += credited
		scheduler.stats.PomodorosToday++
	}
	scheduler.advanceLocked()
	next := scheduler.phase
	sessions := scheduler.completed
	autoAdvance := scheduler.settings.AutoAdvance
	soundEnabled := scheduler.settings.SoundEnabled
	cause := metrics.CauseNatural
	if scheduler.restoring {
		cause = metrics.CauseReconciled
	}
	scheduler.mu.Unlock()

	scheduler.options.Logger.Info("Pomodoro phase complete",
		logfields.Phase(string(finished)),
		slog.String("next_phase", string(next)),
		logfields.Sessions(sessions))
	scheduler.options.Metrics.IncPhaseCompleted(widgetName, string(finished), cause)
	scheduler.options.Metrics.AddFocusMinutes(credited)

	if soundEnabled {
		tone := completionTone(finished)
		scheduler.options.Notifier.PlayTone(tone)
		scheduler.options.Notifier.PlayTone(tone * 6 / 5)
	}
	scheduler.options.Notifier.Notify(notificationTitle, completionMessage(finished))

	scheduler.broadcaster.Emit(countdown.Event{
		Type:  countdown.EventCompleted,
		Phase: string(finished),
		At:    now,
	})

	if autoAdvance {
		scheduler.engine.After(scheduler.options.AdvanceDelay, scheduler.Start)
	}
	scheduler.persist()
	scheduler.emitState()
}

func (scheduler *Scheduler) handleTick(remaining int) {
	scheduler.mu.Lock()
	phase := scheduler.phase
	total := scheduler.phaseSecondsLocked()
	scheduler.mu.Unlock()

	scheduler.broadcaster.Emit(countdown.Event{
		Type:      countdown.EventProgress,
		Phase:     string(phase),
		Remaining: time.Duration(remaining) * time.Second,
		Running:   remaining > 0,
		Progress:  countdown.Progress(total, remaining),
		At:        scheduler.options.Clock.Now(),
	})
}

// advanceLocked moves to the next phase and loads its full duration, paused.
func (scheduler *Scheduler) advanceLocked() {
	scheduler.phase = NextPhase(scheduler.phase, scheduler.completed, scheduler.settings.LongBreakInterval)
	scheduler.engine.SetDuration(scheduler.phaseSecondsLocked())
}

func (scheduler *Scheduler) phaseSecondsLocked() int {
	return int(scheduler.phase.Duration(scheduler.settings) / time.Second)
}

func (scheduler *Scheduler) emitState() {
	scheduler.mu.Lock()
	phase := scheduler.phase
	scheduler.mu.Unlock()

	snapshot := scheduler.engine.Snapshot()
	scheduler.broadcaster.Emit(countdown.Event{
		Type:      countdown.EventStateChange,
		Phase:     string(phase),
		Remaining: time.Duration(snapshot.RemainingSeconds) * time.Second,
		Running:   snapshot.Running,
		Progress:  countdown.Progress(snapshot.TotalDurationSeconds, snapshot.RemainingSeconds),
		At:        scheduler.options.Clock.Now(),
	})
}

// persist writes the current snapshot. Failures are logged; in-memory state stays authoritative.
func (scheduler *Scheduler) persist() {
	if scheduler.options.Store == nil {
		return
	}
	scheduler.persistMu.Lock()
	defer scheduler.persistMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := storage.SaveJSON(ctx, scheduler.options.Store, StateKey, scheduler.Snapshot()); err != nil {
		scheduler.options.Metrics.IncPersistFailure(widgetName, scheduler.options.StoreName)
		scheduler.options.Logger.Error("Failed to persist pomodoro state",
			logfields.Store(scheduler.options.StoreName),
			logfields.Error(err))
	}
}
