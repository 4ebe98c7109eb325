package testutil

import "sync"

// Notification is one message captured by RecordingSink.
type Notification struct {
	Title string
	Body  string
}

// RecordingSink captures notifications and tones. It implements notify.Sink.
type RecordingSink struct {
	mu            sync.Mutex
	notifications []Notification
	tones         []int
	Err           error
}

func (sink *RecordingSink) Notify(title, body string) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.notifications = append(sink.notifications, Notification{Title: title, Body: body})
	return sink.Err
}

func (sink *RecordingSink) PlayTone(frequencyHz int) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.tones = append(sink.tones, frequencyHz)
	return sink.Err
}

// Notifications returns a copy of the captured notifications.
func (sink *RecordingSink) Notifications() []Notification {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]Notification(nil), sink.notifications...)
}

// Tones returns a copy of the captured tone frequencies.
func (sink *RecordingSink) Tones() []int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]int(nil), sink.tones...)
}
