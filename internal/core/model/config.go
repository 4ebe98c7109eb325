package model

import "time"

const (
	MinPhaseDuration     = time.Minute
	MinLongBreakInterval = 2
)

// PomodoroSettings defines the phase durations and behaviour of the pomodoro cycle.
type PomodoroSettings struct {
	FocusTime         time.Duration
	ShortBreak        time.Duration
	LongBreak         time.Duration
	LongBreakInterval int
	AutoAdvance       bool
	SoundEnabled      bool
}

// DefaultPomodoroSettings returns the classic 25/5/15 cycle with a long break every fourth focus.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		FocusTime:         25 * time.Minute,
		ShortBreak:        5 * time.Minute,
		LongBreak:         15 * time.Minute,
		LongBreakInterval: 4,
		AutoAdvance:       true,
		SoundEnabled:      true,
	}
}

// Clamped returns a copy with durations rounded down to whole minutes and raised to their minimums.
func (settings PomodoroSettings) Clamped() PomodoroSettings {
	settings.FocusTime = clampMinutes(settings.FocusTime)
	settings.ShortBreak = clampMinutes(settings.ShortBreak)
	settings.LongBreak = clampMinutes(settings.LongBreak)
	if settings.LongBreakInterval < MinLongBreakInterval {
		settings.LongBreakInterval = MinLongBreakInterval
	}
	return settings
}

func clampMinutes(value time.Duration) time.Duration {
	value = value.Truncate(time.Minute)
	if value < MinPhaseDuration {
		return MinPhaseDuration
	}
	return value
}
