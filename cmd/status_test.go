package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"thetool/internal/core/countdown"
	"thetool/internal/core/pomodoro"
)

func TestDescribeStatus(t *testing.T) {
	now := time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)
	timerSnapshot := &countdown.Snapshot{
		TotalDurationSeconds: 600,
		RemainingSeconds:     600,
		Running:              true,
		AnchorWallClock:      now.Add(-175 * time.Second),
	}
	pomodoroSnapshot := &pomodoro.Snapshot{
		Phase:                  pomodoro.PhaseShortBreak,
		CompletedFocusSessions: 3,
		Countdown: countdown.Snapshot{
			TotalDurationSeconds: 300,
			RemainingSeconds:     200,
			Running:              true,
			AnchorWallClock:      now.Add(-time.Hour),
		},
		Stats: pomodoro.DailyStats{PomodorosToday: 3, FocusMinutesToday: 75, StatDate: "2026-05-11"},
	}

	var out bytes.Buffer
	describeStatus(&out, timerSnapshot, pomodoroSnapshot, now)
	require.Equal(t, "timer:    07:05 running\n"+
		"pomodoro: Short Break finished while inactive, 3 sessions completed\n"+
		"today:    3 pomodoros, 75 focus minutes\n", out.String())
}

func TestDescribeStatusWithoutState(t *testing.T) {
	var out bytes.Buffer
	describeStatus(&out, nil, nil, time.Now())
	require.Equal(t, "timer:    no saved state\npomodoro: no saved state\n", out.String())
}

func TestDescribeStatusStaleStats(t *testing.T) {
	now := time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	describeStatus(&out, nil, &pomodoro.Snapshot{
		Phase:     "bogus",
		Countdown: countdown.Snapshot{TotalDurationSeconds: 1500, RemainingSeconds: 245},
		Stats:     pomodoro.DailyStats{PomodorosToday: 8, StatDate: "2026-05-11"},
	}, now)
	require.Contains(t, out.String(), "pomodoro: Focus Time 04:05 paused, 0 sessions completed\n")
	require.Contains(t, out.String(), "today:    0 pomodoros, 0 focus minutes\n")
}
