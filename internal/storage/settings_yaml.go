package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"thetool/internal/core/model"
)

// SettingsFileName is the preferences file inside the data directory.
const SettingsFileName = "settings.yaml"

type yamlSettings struct {
	FocusMinutes      int   `yaml:"focus_minutes"`
	ShortBreakMinutes int   `yaml:"short_break_minutes"`
	LongBreakMinutes  int   `yaml:"long_break_minutes"`
	LongBreakInterval int   `yaml:"long_break_interval"`
	AutoAdvance       *bool `yaml:"auto_advance"`
	SoundEnabled      *bool `yaml:"sound_enabled"`
}

// LoadSettings reads pomodoro preferences from path.
// If the file does not exist, defaults are returned with found set to false.
func LoadSettings(path string) (settings model.PomodoroSettings, found bool, err error) {
	settings = model.DefaultPomodoroSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, false, nil
		}
		return settings, false, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, false, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings.Clamped(), true, nil
}

// SaveSettings writes pomodoro preferences to path.
func SaveSettings(path string, settings model.PomodoroSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	settings = settings.Clamped()
	fileData := yamlSettings{
		FocusMinutes:      int(settings.FocusTime / time.Minute),
		ShortBreakMinutes: int(settings.ShortBreak / time.Minute),
		LongBreakMinutes:  int(settings.LongBreak / time.Minute),
		LongBreakInterval: settings.LongBreakInterval,
		AutoAdvance:       &settings.AutoAdvance,
		SoundEnabled:      &settings.SoundEnabled,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// DefaultDataDir returns the per-user data directory for appName.
func DefaultDataDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// Fields that are absent or non-positive keep their defaults; Clamped raises the rest.
func applyYamlSettings(settings *model.PomodoroSettings, fileData yamlSettings) {
	if fileData.FocusMinutes > 0 {
		settings.FocusTime = time.Duration(fileData.FocusMinutes) * time.Minute
	}
	if fileData.ShortBreakMinutes > 0 {
		settings.ShortBreak = time.Duration(fileData.ShortBreakMinutes) * time.Minute
	}
	if fileData.LongBreakMinutes > 0 {
		settings.LongBreak = time.Duration(fileData.LongBreakMinutes) * time.Minute
	}
	if fileData.LongBreakInterval != 0 {
		settings.LongBreakInterval = fileData.LongBreakInterval
	}
	if fileData.AutoAdvance != nil {
		settings.AutoAdvance = *fileData.AutoAdvance
	}
	if fileData.SoundEnabled != nil {
		settings.SoundEnabled = *fileData.SoundEnabled
	}
}
