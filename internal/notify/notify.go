// Package notify delivers best-effort completion signals. Nothing here is allowed to
// interrupt countdown logic: every failure is logged and dropped.
package notify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fyne.io/fyne/v2"

	"thetool/internal/logfields"
)

// Sink receives OS notifications and tones.
type Sink interface {
	Notify(title, body string) error
	PlayTone(frequencyHz int) error
}

// ErrUnavailable reports a sink that cannot deliver on this host.
var ErrUnavailable = errors.New("notification sink unavailable")

// FyneSink sends desktop notifications through the fyne app.
type FyneSink struct {
	app fyne.App
}

// NewFyneSink wraps app. A nil app yields a sink that always reports ErrUnavailable.
func NewFyneSink(app fyne.App) *FyneSink {
	return &FyneSink{app: app}
}

// Notify posts a desktop notification.
func (sink *FyneSink) Notify(title, body string) error {
	if sink.app == nil {
		return ErrUnavailable
	}
	sink.app.SendNotification(fyne.NewNotification(title, body))
	return nil
}

// PlayTone is not supported by fyne.
func (sink *FyneSink) PlayTone(int) error {
	return ErrUnavailable
}

// BellSink rings the terminal bell for tones and ignores notifications.
type BellSink struct {
	out io.Writer
}

// NewBellSink writes bell characters to out.
func NewBellSink(out io.Writer) *BellSink {
	return &BellSink{out: out}
}

// Notify is a no-op for the bell.
func (sink *BellSink) Notify(string, string) error {
	return nil
}

// PlayTone emits a bell. The frequency is only a hint.
func (sink *BellSink) PlayTone(int) error {
	if sink.out == nil {
		return ErrUnavailable
	}
	if _, err := io.WriteString(sink.out, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

// Multi forwards to every sink and joins their errors.
type Multi []Sink

// Notify forwards to all sinks.
func (sinks Multi) Notify(title, body string) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Notify(title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PlayTone forwards to all sinks.
func (sinks Multi) PlayTone(frequencyHz int) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.PlayTone(frequencyHz); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher wraps a Sink so that errors and panics never reach the caller.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
}

// NewDispatcher wraps sink. A nil sink drops everything.
func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sink: sink, logger: logger}
}

// Notify posts title and body, swallowing failures.
func (dispatcher *Dispatcher) Notify(title, body string) {
	dispatcher.deliver("notify", func(sink Sink) error {
		return sink.Notify(title, body)
	})
}

// PlayTone plays a tone, swallowing failures.
func (dispatcher *Dispatcher) PlayTone(frequencyHz int) {
	dispatcher.deliver("tone", func(sink Sink) error {
		return sink.PlayTone(frequencyHz)
	})
}

func (dispatcher *Dispatcher) deliver(kind string, send func(Sink) error) {
	if dispatcher == nil || dispatcher.sink == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			dispatcher.logger.Warn("Notification sink panicked", slog.String("kind", kind), slog.Any("panic", recovered))
		}
	}()
	if err := send(dispatcher.sink); err != nil {
		dispatcher.logger.Debug("Notification not delivered", slog.String("kind", kind), logfields.Error(err))
	}
}
