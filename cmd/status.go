package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"thetool/internal/core/countdown"
	"thetool/internal/core/pomodoro"
	"thetool/internal/core/reconcile"
	"thetool/internal/core/timer"
	"thetool/internal/storage"
	"thetool/internal/ui/tray"
)

// StatusCmd prints what the persisted widgets would resume to right now, without touching
// them. Completions that happened while nothing was running are reported, not credited.
type StatusCmd struct{}

func (s *StatusCmd) Run(global *Global, cli *CLI) error {
	dataDir, err := resolveDataDir(cli)
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStore(filepath.Join(dataDir, stateFileName))
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	var timerSnapshot *countdown.Snapshot
	var saved countdown.Snapshot
	if found, err := storage.LoadJSON(ctx, store, timer.StateKey, &saved); err != nil {
		return err
	} else if found {
		timerSnapshot = &saved
	}

	var pomodoroSnapshot *pomodoro.Snapshot
	var savedPomodoro pomodoro.Snapshot
	if found, err := storage.LoadJSON(ctx, store, pomodoro.StateKey, &savedPomodoro); err != nil {
		return err
	} else if found {
		pomodoroSnapshot = &savedPomodoro
	}

	describeStatus(os.Stdout, timerSnapshot, pomodoroSnapshot, time.Now())
	return nil
}

func describeStatus(out io.Writer, timerSnapshot *countdown.Snapshot, pomodoroSnapshot *pomodoro.Snapshot, now time.Time) {
	if timerSnapshot == nil {
		fmt.Fprintln(out, "timer:    no saved state")
	} else {
		fmt.Fprintf(out, "timer:    %s\n", describeResolution(reconcile.Resolve(*timerSnapshot, now)))
	}

	if pomodoroSnapshot == nil {
		fmt.Fprintln(out, "pomodoro: no saved state")
		return
	}
	phase := pomodoroSnapshot.Phase
	if !phase.Valid() {
		phase = pomodoro.PhaseFocus
	}
	resolution := reconcile.Resolve(pomodoroSnapshot.Countdown, now)
	fmt.Fprintf(out, "pomodoro: %s %s, %d sessions completed\n", phase.Label(), describeResolution(resolution), pomodoroSnapshot.CompletedFocusSessions)

	stats := pomodoroSnapshot.Stats
	if stats.StatDate == now.Format("2006-01-02") {
		fmt.Fprintf(out, "today:    %d pomodoros, %d focus minutes\n", stats.PomodorosToday, stats.FocusMinutesToday)
	} else {
		fmt.Fprintln(out, "today:    0 pomodoros, 0 focus minutes")
	}
}

func describeResolution(resolution reconcile.Resolution) string {
	remaining := tray.FormatRemaining(time.Duration(resolution.Remaining) * time.Second)
	switch {
	case resolution.Completed:
		return "finished while inactive"
	case resolution.Running:
		return remaining + " running"
	default:
		return remaining + " paused"
	}
}
