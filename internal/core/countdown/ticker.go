package countdown

import "time"

// CancelFunc stops a repeating schedule. Calling it more than once is safe.
type CancelFunc func()

// Ticker schedules fn to run every interval until the returned CancelFunc is called.
type Ticker interface {
	ScheduleRepeating(interval time.Duration, fn func()) (CancelFunc, error)
}

// TickerFunc adapts a function to the Ticker interface.
type TickerFunc func(interval time.Duration, fn func()) (CancelFunc, error)

// ScheduleRepeating calls tickerFunc.
func (tickerFunc TickerFunc) ScheduleRepeating(interval time.Duration, fn func()) (CancelFunc, error) {
	return tickerFunc(interval, fn)
}
