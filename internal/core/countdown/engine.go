package countdown

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"thetool/internal/logfields"
)

// Snapshot is the persisted form of an engine. AnchorWallClock is absolute so a snapshot
// stays meaningful after the process has been down for any length of time.
type Snapshot struct {
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	RemainingSeconds     int       `json:"remaining_seconds"`
	Running              bool      `json:"running"`
	AnchorWallClock      time.Time `json:"anchor_wall_clock"`
}

// Config contains runtime options for an Engine.
type Config struct {
	TickInterval time.Duration
	Clock        clockwork.Clock
	Ticker       Ticker
	Logger       *slog.Logger
}

// Engine counts a duration down to zero. Remaining time is always derived from the wall
// clock and the anchor, never from the number of ticks observed, so missed ticks while the
// host is suspended cannot skew it.
type Engine struct {
	mu         sync.Mutex
	options    Config
	total      int
	remaining  int
	running    bool
	anchor     time.Time
	cancelTick CancelFunc
	generation uint64
	pending    clockwork.Timer
	pendingID  uint64
	run        uint64
	onComplete func(run uint64)
	onTick     func(remaining int)
}

// New creates a stopped engine with a zero duration.
func New(options Config) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Ticker == nil {
		options.Ticker = NewClockTicker(options.Clock)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Engine{options: options}
}

// SetOnComplete registers the handler invoked once each time the countdown reaches zero.
func (engine *Engine) SetOnComplete(handler func()) {
	if handler == nil {
		engine.SetOnRunComplete(nil)
		return
	}
	engine.SetOnRunComplete(func(uint64) { handler() })
}

// SetOnRunComplete is SetOnComplete with the run that reached zero. A handler compares it
// with Run to drop a completion that was overtaken by SetDuration, Reset or Load.
func (engine *Engine) SetOnRunComplete(handler func(run uint64)) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.onComplete = handler
}

// Run identifies the currently loaded duration. It changes on SetDuration, Reset and Load.
func (engine *Engine) Run() uint64 {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.run
}

// SetOnTick registers an observer called with the remaining seconds after every tick.
func (engine *Engine) SetOnTick(handler func(remaining int)) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.onTick = handler
}

// Clock returns the clock the engine measures against.
func (engine *Engine) Clock() clockwork.Clock {
	return engine.options.Clock
}

// SetDuration stops the engine and sets both total and remaining time to seconds.
// Negative values are treated as zero.
func (engine *Engine) SetDuration(seconds int) {
	seconds = ClampSeconds(seconds)
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.stopLocked(engine.options.Clock.Now())
	engine.total = seconds
	engine.remaining = seconds
	engine.run++
}

// Start begins ticking. It is a no-op when already running or when nothing is left to run.
func (engine *Engine) Start() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	elapsed := time.Duration(engine.total-engine.remaining) * time.Second
	engine.startLocked(engine.options.Clock.Now().Add(-elapsed))
}

// Pause freezes the remaining time and stops ticking. If the countdown ran out since the
// last tick, the completion handler runs before Pause returns.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	if !engine.running {
		engine.mu.Unlock()
		return
	}
	completed := engine.refreshLocked(engine.options.Clock.Now())
	engine.haltLocked()
	run := engine.run
	onComplete := engine.onComplete
	engine.mu.Unlock()

	if completed && onComplete != nil {
		onComplete(run)
	}
}

// Stop halts the engine like Pause but never fires completion and cancels any pending
// follow-up registered with After.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.stopLocked(engine.options.Clock.Now())
}

// Reset stops the engine and restores the full duration.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.stopLocked(engine.options.Clock.Now())
	engine.remaining = engine.total
	engine.run++
}

// Load restores a paused state. Remaining time is clamped into [0, total].
func (engine *Engine) Load(total, remaining int) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.loadLocked(total, remaining)
}

// ResumeFrom restores a running state keeping the persisted anchor.
func (engine *Engine) ResumeFrom(total, remaining int, anchor time.Time) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.loadLocked(total, remaining)
	engine.startLocked(anchor)
}

// CompleteNow forces remaining time to zero and runs the completion handler synchronously.
func (engine *Engine) CompleteNow() {
	engine.mu.Lock()
	engine.stopLocked(engine.options.Clock.Now())
	engine.remaining = 0
	run := engine.run
	onComplete := engine.onComplete
	engine.mu.Unlock()

	if onComplete != nil {
		onComplete(run)
	}
}

// After runs fn once delay has elapsed unless Stop or SetDuration is called first.
// Registering a new follow-up replaces the previous one.
func (engine *Engine) After(delay time.Duration, fn func()) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.cancelPendingLocked()
	engine.pendingID++
	id := engine.pendingID
	engine.pending = engine.options.Clock.AfterFunc(delay, func() {
		engine.mu.Lock()
		current := engine.pendingID == id && engine.pending != nil
		if current {
			engine.pending = nil
		}
		engine.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Remaining returns the seconds left, derived from the clock while running.
func (engine *Engine) Remaining() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.currentLocked(engine.options.Clock.Now())
}

// Total returns the configured duration in seconds.
func (engine *Engine) Total() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.total
}

// Running reports whether the engine is ticking.
func (engine *Engine) Running() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.running
}

// Anchor returns the wall-clock instant the current run is measured from.
func (engine *Engine) Anchor() time.Time {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.anchor
}

// Snapshot captures the engine for persistence.
func (engine *Engine) Snapshot() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return Snapshot{
		TotalDurationSeconds: engine.total,
		RemainingSeconds:     engine.currentLocked(engine.options.Clock.Now()),
		Running:              engine.running,
		AnchorWallClock:      engine.anchor,
	}
}

func (engine *Engine) tick(generation uint64) {
	engine.mu.Lock()
	if !engine.running || generation != engine.generation {
		engine.mu.Unlock()
		return
	}
	completed := engine.refreshLocked(engine.options.Clock.Now())
	remaining := engine.remaining
	run := engine.run
	onTick := engine.onTick
	onComplete := engine.onComplete
	engine.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if completed && onComplete != nil {
		onComplete(run)
	}
}

func (engine *Engine) startLocked(anchor time.Time) {
	if engine.running || engine.remaining <= 0 {
		return
	}
	engine.generation++
	generation := engine.generation
	cancel, err := engine.options.Ticker.ScheduleRepeating(engine.options.TickInterval, func() {
		engine.tick(generation)
	})
	if err != nil {
		engine.options.Logger.Error("Failed to schedule countdown tick", logfields.Error(err))
		return
	}
	engine.cancelTick = cancel
	engine.anchor = anchor
	engine.running = true
}

// refreshLocked recomputes remaining time and reports whether this call observed the
// transition to zero. On that transition ticking stops.
func (engine *Engine) refreshLocked(now time.Time) bool {
	previous := engine.remaining
	engine.remaining = engine.currentLocked(now)
	if engine.remaining == 0 && previous > 0 {
		engine.haltLocked()
		return true
	}
	return false
}

func (engine *Engine) currentLocked(now time.Time) int {
	if !engine.running {
		return engine.remaining
	}
	elapsed := int(now.Sub(engine.anchor) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := engine.total - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (engine *Engine) stopLocked(now time.Time) {
	if engine.running {
		engine.remaining = engine.currentLocked(now)
	}
	engine.haltLocked()
	engine.cancelPendingLocked()
}

func (engine *Engine) haltLocked() {
	engine.running = false
	if engine.cancelTick != nil {
		engine.cancelTick()
		engine.cancelTick = nil
	}
}

func (engine *Engine) cancelPendingLocked() {
	if engine.pending != nil {
		engine.pending.Stop()
		engine.pending = nil
	}
}

func (engine *Engine) loadLocked(total, remaining int) {
	engine.stopLocked(engine.options.Clock.Now())
	total = ClampSeconds(total)
	remaining = ClampSeconds(remaining)
	if remaining > total {
		remaining = total
	}
	engine.total = total
	engine.remaining = remaining
	engine.run++
}
