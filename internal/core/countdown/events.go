package countdown

import (
	"sync"
	"time"
)

// EventType defines the type of countdown event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventCompleted   EventType = "completed"
)

// Event represents a countdown update for observers. Phase is empty for plain timers.
type Event struct {
	Type      EventType
	Phase     string
	Remaining time.Duration
	Running   bool
	Progress  float64
	At        time.Time
}

// Broadcaster fans events out to subscriber channels without blocking the sender.
type Broadcaster struct {
	mu     sync.Mutex
	events []chan Event
	closed bool
}

// Subscribe registers a new observer channel.
func (broadcaster *Broadcaster) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.closed {
		close(ch)
		return ch
	}
	broadcaster.events = append(broadcaster.events, ch)
	return ch
}

// Emit delivers event to every subscriber with spare buffer; full subscribers miss it.
func (broadcaster *Broadcaster) Emit(event Event) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	for _, ch := range broadcaster.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes all subscriber channels. Later Emit calls are dropped.
func (broadcaster *Broadcaster) Close() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	for _, ch := range broadcaster.events {
		close(ch)
	}
	broadcaster.events = nil
}

// Progress returns the elapsed fraction of total in [0, 1].
func Progress(total, remaining int) float64 {
	if total <= 0 {
		return 1
	}
	progress := float64(total-remaining) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
