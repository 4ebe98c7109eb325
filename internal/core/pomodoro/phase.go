package pomodoro

import (
	"time"

	"thetool/internal/core/model"
)

// Phase is one segment of the pomodoro cycle.
type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// Valid reports whether phase is a known phase.
func (phase Phase) Valid() bool {
	switch phase {
	case PhaseFocus, PhaseShortBreak, PhaseLongBreak:
		return true
	}
	return false
}

// Label returns the display name of phase.
func (phase Phase) Label() string {
	switch phase {
	case PhaseShortBreak:
		return "Short Break"
	case PhaseLongBreak:
		return "Long Break"
	default:
		return "Focus Time"
	}
}

// Duration returns the configured length of phase.
func (phase Phase) Duration(settings model.PomodoroSettings) time.Duration {
	switch phase {
	case PhaseShortBreak:
		return settings.ShortBreak
	case PhaseLongBreak:
		return settings.LongBreak
	default:
		return settings.FocusTime
	}
}

// NextPhase returns the phase that follows current. A focus phase is followed by a long
// break whenever the completed session count is a positive multiple of interval.
func NextPhase(current Phase, completedSessions, interval int) Phase {
	if current != PhaseFocus {
		return PhaseFocus
	}
	if interval < model.MinLongBreakInterval {
		interval = model.MinLongBreakInterval
	}
	if completedSessions > 0 && completedSessions%interval == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

func completionMessage(finished Phase) string {
	switch finished {
	case PhaseShortBreak:
		return "Short break over! Ready to focus?"
	case PhaseLongBreak:
		return "Long break finished! Back to work!"
	default:
		return "Focus session complete! Time for a break."
	}
}

func completionTone(finished Phase) int {
	if finished == PhaseFocus {
		return 600
	}
	return 800
}
