package preferences

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/require"

	"thetool/internal/core/model"
)

func TestSaveParsesAndClamps(t *testing.T) {
	var saved model.PomodoroSettings
	prefs := New(test.NewApp(), model.DefaultPomodoroSettings(), func(settings model.PomodoroSettings) {
		saved = settings
	}, nil)

	prefs.focus.SetText(" 50 ")
	prefs.shortBreak.SetText("abc")
	prefs.longBreak.SetText("-3")
	prefs.interval.SetText("1")
	prefs.sound.SetChecked(false)
	prefs.handleSave()

	require.Equal(t, 50*time.Minute, saved.FocusTime)
	require.Equal(t, 5*time.Minute, saved.ShortBreak, "unparseable input keeps the previous value")
	require.Equal(t, 15*time.Minute, saved.LongBreak)
	require.Equal(t, 2, saved.LongBreakInterval)
	require.False(t, saved.SoundEnabled)
	require.Equal(t, "2", prefs.interval.Text)
}

func TestSetTimerForwardsFields(t *testing.T) {
	var got []string
	prefs := New(test.NewApp(), model.DefaultPomodoroSettings(), nil, func(hours, minutes, seconds string) {
		got = []string{hours, minutes, seconds}
	})
	prefs.hours.SetText("1")
	prefs.minutes.SetText("2")
	prefs.seconds.SetText("3")
	prefs.onSetTimer(prefs.hours.Text, prefs.minutes.Text, prefs.seconds.Text)
	require.Equal(t, []string{"1", "2", "3"}, got)
}
