// Package timer implements the plain countdown widget: a user-chosen duration that counts
// down once and notifies on zero.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"thetool/internal/core/countdown"
	"thetool/internal/core/reconcile"
	"thetool/internal/logfields"
	"thetool/internal/metrics"
	"thetool/internal/notify"
	"thetool/internal/storage"
)

const (
	// StateKey is the store key holding the timer snapshot.
	StateKey = "timerState"

	widgetName          = "timer"
	defaultTickInterval = 100 * time.Millisecond
	completionTone      = 800
	notificationTitle   = "Timer Finished!"
	notificationBody    = "Your countdown timer has reached zero."
	persistTimeout      = 5 * time.Second
)

// Presets are the quick-pick durations offered by the tray.
var Presets = []time.Duration{time.Minute, 5 * time.Minute, 10 * time.Minute, 15 * time.Minute, 30 * time.Minute}

// Config contains runtime options for a Timer.
type Config struct {
	TickInterval time.Duration
	Clock        clockwork.Clock
	Ticker       countdown.Ticker
	Store        storage.Store
	StoreName    string
	Notifier     *notify.Dispatcher
	Metrics      metrics.Recorder
	Logger       *slog.Logger
}

// Timer is a single resumable countdown.
type Timer struct {
	persistMu   sync.Mutex
	options     Config
	engine      *countdown.Engine
	restoring   bool
	restoreMu   sync.Mutex
	broadcaster countdown.Broadcaster
}

// New creates a stopped timer with no duration.
func New(options Config) *Timer {
	if options.TickInterval <= 0 {
		options.TickInterval = defaultTickInterval
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

	timer := &Timer{options: options}
	timer.engine = countdown.New(countdown.Config{
		TickInterval: options.TickInterval,
		Clock:        options.Clock,
		Ticker:       options.Ticker,
		Logger:       options.Logger,
	})
	timer.engine.SetOnComplete(timer.handleComplete)
	timer.engine.SetOnTick(timer.handleTick)
	return timer
}

// Activate restores the persisted timer. A timer that ran out while the process was down
// notifies once.
func (timer *Timer) Activate(ctx context.Context) {
	if timer.options.Store == nil {
		return
	}
	var snapshot countdown.Snapshot
	found, err := storage.LoadJSON(ctx, timer.options.Store, StateKey, &snapshot)
	if err != nil {
		timer.options.Logger.Warn("Ignoring unreadable timer state", logfields.Error(err))
		return
	}
	if !found {
		return
	}

	timer.setRestoring(true)
	resolution := reconcile.Apply(timer.engine, snapshot)
	timer.setRestoring(false)

	timer.options.Logger.Info("Timer state restored",
		logfields.Remaining(timer.engine.Remaining()),
		slog.Bool("running", resolution.Running),
		slog.Bool("completed_while_inactive", resolution.Completed))
	if !resolution.Completed {
		timer.persist()
	}
	timer.emitState()
}

// SetSeconds stops the timer and loads seconds. Negative values become zero.
func (timer *Timer) SetSeconds(seconds int) {
	timer.engine.SetDuration(seconds)
	timer.persist()
	timer.emitState()
}

// SetClock loads a duration entered as hour, minute and second fields. Each field is
// sanitized and capped independently.
func (timer *Timer) SetClock(hours, minutes, seconds string) {
	timer.SetSeconds(countdown.FromClock(hours, minutes, seconds))
}

// Preset loads duration, truncated to whole seconds.
func (timer *Timer) Preset(duration time.Duration) {
	timer.SetSeconds(int(duration / time.Second))
}

// Start begins counting down. It is a no-op with nothing left to run.
func (timer *Timer) Start() {
	if timer.engine.Running() {
		return
	}
	timer.engine.Start()
	timer.persist()
	timer.emitState()
}

// Pause freezes the remaining time.
func (timer *Timer) Pause() {
	if !timer.engine.Running() {
		return
	}
	timer.engine.Pause()
	timer.persist()
	timer.emitState()
}

// Reset stops the timer and restores its full duration.
func (timer *Timer) Reset() {
	timer.engine.Reset()
	timer.persist()
	timer.emitState()
}

// Remaining returns the seconds left.
func (timer *Timer) Remaining() int {
	return timer.engine.Remaining()
}

// Running reports whether the timer is counting down.
func (timer *Timer) Running() bool {
	return timer.engine.Running()
}

// Snapshot captures the timer for persistence.
func (timer *Timer) Snapshot() countdown.Snapshot {
	return timer.engine.Snapshot()
}

// Subscribe registers a new observer channel.
func (timer *Timer) Subscribe(buffer int) <-chan countdown.Event {
	return timer.broadcaster.Subscribe(buffer)
}

// Close persists the final state, stops ticking and closes observers.
func (timer *Timer) Close() {
	timer.persist()
	timer.engine.Stop()
	timer.broadcaster.Close()
}

func (timer *Timer) handleComplete() {
	cause := metrics.CauseNatural
	if timer.isRestoring() {
		cause = metrics.CauseReconciled
	}
	timer.options.Logger.Info("Timer complete")
	timer.options.Metrics.IncPhaseCompleted(widgetName, widgetName, cause)
	timer.options.Notifier.PlayTone(completionTone)
	timer.options.Notifier.Notify(notificationTitle, notificationBody)

	timer.broadcaster.Emit(countdown.Event{
		Type: countdown.EventCompleted,
		At:   timer.options.Clock.Now(),
	})
	timer.persist()
	timer.emitState()
}

func (timer *Timer) handleTick(remaining int) {
	timer.broadcaster.Emit(countdown.Event{
		Type:      countdown.EventProgress,
		Remaining: time.Duration(remaining) * time.Second,
		Running:   remaining > 0,
		Progress:  countdown.Progress(timer.engine.Total(), remaining),
		At:        timer.options.Clock.Now(),
	})
}

func (timer *Timer) emitState() {
	snapshot := timer.engine.Snapshot()
	timer.broadcaster.Emit(countdown.Event{
		Type:      countdown.EventStateChange,
		Remaining: time.Duration(snapshot.RemainingSeconds) * time.Second,
		Running:   snapshot.Running,
		Progress:  countdown.Progress(snapshot.TotalDurationSeconds, snapshot.RemainingSeconds),
		At:        timer.options.Clock.Now(),
	})
}

func (timer *Timer) setRestoring(restoring bool) {
	timer.restoreMu.Lock()
	defer timer.restoreMu.Unlock()
	timer.restoring = restoring
}

func (timer *Timer) isRestoring() bool {
	timer.restoreMu.Lock()
	defer timer.restoreMu.Unlock()
	return timer.restoring
}

func (timer *Timer) persist() {
	if timer.options.Store == nil {
		return
	}
	timer.persistMu.Lock()
	defer timer.persistMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := storage.SaveJSON(ctx, timer.options.Store, StateKey, timer.engine.Snapshot()); err != nil {
		timer.options.Metrics.IncPersistFailure(widgetName, timer.options.StoreName)
		timer.options.Logger.Error("Failed to persist timer state",
			logfields.Store(timer.options.StoreName),
			logfields.Error(err))
	}
}
