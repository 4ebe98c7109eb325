package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ClockTicker runs each schedule on its own goroutine driven by a clockwork ticker.
type ClockTicker struct {
	clock clockwork.Clock
}

// NewClockTicker returns a Ticker that measures intervals with clock.
func NewClockTicker(clock clockwork.Clock) *ClockTicker {
	return &ClockTicker{clock: clock}
}

// ScheduleRepeating starts a ticking loop for fn.
func (ticker *ClockTicker) ScheduleRepeating(interval time.Duration, fn func()) (CancelFunc, error) {
	stopCh := make(chan struct{})
	clockTicker := ticker.clock.NewTicker(interval)
	go func() {
		defer clockTicker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-clockTicker.Chan():
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}, nil
}
