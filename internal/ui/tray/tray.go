package tray

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const menuTitle = "thetool"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences    func()
	OnTogglePomodoro func()
	OnSkipPhase      func()
	OnResetPomodoro  func()
	OnToggleSound    func()
	OnToggleTimer    func()
	OnResetTimer     func()
	OnTimerPreset    func(time.Duration)
	OnQuit           func()
}

// Manager handles system tray state.
type Manager struct {
	app             desktop.App
	callbacks       Callbacks
	pomodoroStatus  *fyne.MenuItem
	pomodoroToggle  *fyne.MenuItem
	skipItem        *fyne.MenuItem
	resetPomodoro   *fyne.MenuItem
	soundItem       *fyne.MenuItem
	timerStatus     *fyne.MenuItem
	timerToggle     *fyne.MenuItem
	timerReset      *fyne.MenuItem
	timerPresets    *fyne.MenuItem
	preferencesItem *fyne.MenuItem
	quitItem        *fyne.MenuItem
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, presets []time.Duration, callbacks Callbacks) *Manager {
	manager := &Manager{app: app, callbacks: callbacks}

	manager.pomodoroStatus = fyne.NewMenuItem("Pomodoro: starting...", nil)
	manager.pomodoroStatus.Disabled = true
	manager.pomodoroToggle = fyne.NewMenuItem("Start", invoke(callbacks.OnTogglePomodoro))
	manager.skipItem = fyne.NewMenuItem("Skip phase", invoke(callbacks.OnSkipPhase))
	manager.resetPomodoro = fyne.NewMenuItem("Reset pomodoro", invoke(callbacks.OnResetPomodoro))
	manager.soundItem = fyne.NewMenuItem("Sound", invoke(callbacks.OnToggleSound))

	manager.timerStatus = fyne.NewMenuItem("Timer: 00:00", nil)
	manager.timerStatus.Disabled = true
	manager.timerToggle = fyne.NewMenuItem("Start timer", invoke(callbacks.OnToggleTimer))
	manager.timerReset = fyne.NewMenuItem("Reset timer", invoke(callbacks.OnResetTimer))

	items := make([]*fyne.MenuItem, 0, len(presets))
	for _, preset := range presets {
		items = append(items, fyne.NewMenuItem(fmt.Sprintf("%d minutes", int(preset.Minutes())), func() {
			if callbacks.OnTimerPreset != nil {
				callbacks.OnTimerPreset(preset)
			}
		}))
	}
	manager.timerPresets = fyne.NewMenuItem("Set timer", nil)
	manager.timerPresets.ChildMenu = fyne.NewMenu("", items...)

	manager.preferencesItem = fyne.NewMenuItem("Preferences", invoke(callbacks.OnPreferences))
	manager.quitItem = fyne.NewMenuItem("Quit", invoke(callbacks.OnQuit))
	manager.quitItem.IsQuit = true

	manager.refreshMenu()
	return manager
}

// SetPomodoro updates the pomodoro status line and controls.
func (manager *Manager) SetPomodoro(phase string, remaining time.Duration, running bool, sessions int) {
	status := fmt.Sprintf("%s %s (%d done)", phase, FormatRemaining(remaining), sessions)
	if !running {
		status += " paused"
	}
	manager.pomodoroStatus.Label = status
	if running {
		manager.pomodoroToggle.Label = "Pause"
	} else {
		manager.pomodoroToggle.Label = "Start"
	}
	manager.refreshMenu()
}

// SetSound reflects the completion tone setting.
func (manager *Manager) SetSound(enabled bool) {
	manager.soundItem.Checked = enabled
	manager.refreshMenu()
}

// SetTimer updates the countdown timer status line and controls.
func (manager *Manager) SetTimer(remaining time.Duration, running bool) {
	manager.timerStatus.Label = "Timer: " + FormatRemaining(remaining)
	if running {
		manager.timerToggle.Label = "Pause timer"
	} else {
		manager.timerToggle.Label = "Start timer"
	}
	manager.refreshMenu()
}

// FormatRemaining renders remaining as MM:SS, or H:MM:SS from one hour up.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining / time.Second)
	hours, minutes := seconds/3600, (seconds/60)%60
	seconds %= 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.pomodoroStatus,
		manager.pomodoroToggle,
		manager.skipItem,
		manager.resetPomodoro,
		manager.soundItem,
		fyne.NewMenuItemSeparator(),
		manager.timerStatus,
		manager.timerToggle,
		manager.timerPresets,
		manager.timerReset,
		fyne.NewMenuItemSeparator(),
		manager.preferencesItem,
		manager.quitItem,
	))
}

func invoke(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}
