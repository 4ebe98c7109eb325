package main

import (
	"log/slog"

	"thetool/internal/core/model"
	"thetool/internal/core/pomodoro"
	"thetool/internal/logfields"
	"thetool/internal/storage"
)

// applySettings installs settings and writes them to the settings file so the next start
// reads the same values.
func applySettings(scheduler *pomodoro.Scheduler, path string, settings model.PomodoroSettings, logger *slog.Logger) {
	scheduler.ApplySettings(settings)
	saveSettings(path, scheduler.Settings(), logger)
}

// toggleSound flips the completion tone and saves the result.
func toggleSound(scheduler *pomodoro.Scheduler, path string, logger *slog.Logger) bool {
	enabled := scheduler.ToggleSound()
	saveSettings(path, scheduler.Settings(), logger)
	return enabled
}

func saveSettings(path string, settings model.PomodoroSettings, logger *slog.Logger) {
	if err := storage.SaveSettings(path, settings); err != nil {
		logger.Error("Failed to save settings", logfields.Path(path), logfields.Error(err))
	}
}
