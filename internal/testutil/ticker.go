// Package testutil holds fakes shared by package tests.
package testutil

import (
	"sync"
	"time"

	"thetool/internal/core/countdown"
)

// ManualTicker records schedules and runs them only when Fire is called.
type ManualTicker struct {
	mu        sync.Mutex
	schedules []*manualSchedule
	Intervals []time.Duration
	Err       error
}

type manualSchedule struct {
	fn        func()
	cancelled bool
}

// ScheduleRepeating implements countdown.Ticker.
func (ticker *ManualTicker) ScheduleRepeating(interval time.Duration, fn func()) (countdown.CancelFunc, error) {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	if ticker.Err != nil {
		return nil, ticker.Err
	}
	schedule := &manualSchedule{fn: fn}
	ticker.schedules = append(ticker.schedules, schedule)
	ticker.Intervals = append(ticker.Intervals, interval)
	return func() {
		ticker.mu.Lock()
		defer ticker.mu.Unlock()
		schedule.cancelled = true
	}, nil
}

// Fire invokes every schedule that has not been cancelled.
func (ticker *ManualTicker) Fire() {
	for _, fn := range ticker.active() {
		fn()
	}
}

// FireAll invokes every schedule ever registered, including cancelled ones. It simulates
// ticks that were already in flight when their schedule was cancelled.
func (ticker *ManualTicker) FireAll() {
	ticker.mu.Lock()
	fns := make([]func(), 0, len(ticker.schedules))
	for _, schedule := range ticker.schedules {
		fns = append(fns, schedule.fn)
	}
	ticker.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Active reports the number of schedules that have not been cancelled.
func (ticker *ManualTicker) Active() int {
	return len(ticker.active())
}

func (ticker *ManualTicker) active() []func() {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	var fns []func()
	for _, schedule := range ticker.schedules {
		if !schedule.cancelled {
			fns = append(fns, schedule.fn)
		}
	}
	return fns
}
