package pomodoro

import (
	"time"

	"thetool/internal/core/countdown"
	"thetool/internal/core/model"
)

// Snapshot is the persisted form of a Scheduler.
type Snapshot struct {
	Settings               settingsRecord     `json:"settings"`
	Phase                  Phase              `json:"current_phase"`
	CompletedFocusSessions int                `json:"completed_focus_sessions"`
	Countdown              countdown.Snapshot `json:"countdown"`
	Stats                  DailyStats         `json:"stats"`
}

// settingsRecord stores durations in whole minutes.
type settingsRecord struct {
	FocusMinutes      int  `json:"focus_time"`
	ShortBreakMinutes int  `json:"short_break"`
	LongBreakMinutes  int  `json:"long_break"`
	LongBreakInterval int  `json:"long_break_interval"`
	AutoAdvance       bool `json:"auto_advance"`
	SoundEnabled      bool `json:"sound_enabled"`
}

func settingsRecordFrom(settings model.PomodoroSettings) settingsRecord {
	return settingsRecord{
		FocusMinutes:      int(settings.FocusTime / time.Minute),
		ShortBreakMinutes: int(settings.ShortBreak / time.Minute),
		LongBreakMinutes:  int(settings.LongBreak / time.Minute),
		LongBreakInterval: settings.LongBreakInterval,
		AutoAdvance:       settings.AutoAdvance,
		SoundEnabled:      settings.SoundEnabled,
	}
}

func (record settingsRecord) toModel() model.PomodoroSettings {
	return model.PomodoroSettings{
		FocusTime:         time.Duration(record.FocusMinutes) * time.Minute,
		ShortBreak:        time.Duration(record.ShortBreakMinutes) * time.Minute,
		LongBreak:         time.Duration(record.LongBreakMinutes) * time.Minute,
		LongBreakInterval: record.LongBreakInterval,
		AutoAdvance:       record.AutoAdvance,
		SoundEnabled:      record.SoundEnabled,
	}
}
