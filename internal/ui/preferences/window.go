package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"thetool/internal/core/model"
)

// Window edits pomodoro settings and lets the user type a timer duration.
type Window struct {
	window      fyne.Window
	settings    model.PomodoroSettings
	onSave      func(model.PomodoroSettings)
	onSetTimer  func(hours, minutes, seconds string)
	focus       *widget.Entry
	shortBreak  *widget.Entry
	longBreak   *widget.Entry
	interval    *widget.Entry
	autoAdvance *widget.Check
	sound       *widget.Check
	hours       *widget.Entry
	minutes     *widget.Entry
	seconds     *widget.Entry
}

// New creates a preferences window.
func New(app fyne.App, settings model.PomodoroSettings, onSave func(model.PomodoroSettings), onSetTimer func(hours, minutes, seconds string)) *Window {
	window := app.NewWindow("thetool Settings")

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		onSetTimer:  onSetTimer,
		focus:       widget.NewEntry(),
		shortBreak:  widget.NewEntry(),
		longBreak:   widget.NewEntry(),
		interval:    widget.NewEntry(),
		autoAdvance: widget.NewCheck("Start the next phase automatically", nil),
		sound:       widget.NewCheck("Play a tone when a phase ends", nil),
		hours:       widget.NewEntry(),
		minutes:     widget.NewEntry(),
		seconds:     widget.NewEntry(),
	}
	prefs.hours.SetPlaceHolder("h")
	prefs.minutes.SetPlaceHolder("m")
	prefs.seconds.SetPlaceHolder("s")
	prefs.UpdateSettings(settings)

	setTimer := widget.NewButton("Set timer", func() {
		if prefs.onSetTimer != nil {
			prefs.onSetTimer(prefs.hours.Text, prefs.minutes.Text, prefs.seconds.Text)
		}
	})

	form := container.NewVBox(
		widget.NewLabelWithStyle("Pomodoro", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus"), prefs.focus, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break every"), prefs.interval, widget.NewLabel("sessions")),
		prefs.autoAdvance,
		prefs.sound,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(prefs.hours, widget.NewLabel(":"), prefs.minutes, widget.NewLabel(":"), prefs.seconds, setTimer),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 420))
	window.SetCloseIntercept(window.Hide)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.PomodoroSettings) {
	prefs.settings = settings
	prefs.focus.SetText(formatMinutes(settings.FocusTime))
	prefs.shortBreak.SetText(formatMinutes(settings.ShortBreak))
	prefs.longBreak.SetText(formatMinutes(settings.LongBreak))
	prefs.interval.SetText(strconv.Itoa(settings.LongBreakInterval))
	prefs.autoAdvance.SetChecked(settings.AutoAdvance)
	prefs.sound.SetChecked(settings.SoundEnabled)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings
	if minutes, ok := parsePositiveInt(prefs.focus.Text); ok {
		settings.FocusTime = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.shortBreak.Text); ok {
		settings.ShortBreak = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.longBreak.Text); ok {
		settings.LongBreak = time.Duration(minutes) * time.Minute
	}
	if count, ok := parsePositiveInt(prefs.interval.Text); ok {
		settings.LongBreakInterval = count
	}
	settings.AutoAdvance = prefs.autoAdvance.Checked
	settings.SoundEnabled = prefs.sound.Checked

	settings = settings.Clamped()
	prefs.UpdateSettings(settings)
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func formatMinutes(value time.Duration) string {
	return fmt.Sprintf("%d", int(value/time.Minute))
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
