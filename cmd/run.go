package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"thetool/internal/core/countdown"
	"thetool/internal/core/model"
	"thetool/internal/core/pomodoro"
	"thetool/internal/core/timer"
	"thetool/internal/logfields"
	"thetool/internal/notify"
	"thetool/internal/platform"
	"thetool/internal/storage"
	"thetool/internal/ui/preferences"
	"thetool/internal/ui/tray"
	"thetool/resources"
)

// RunCmd starts the tray app.
type RunCmd struct{}

func (r *RunCmd) Run(global *Global, cli *CLI) error {
	logger := global.Logger
	dataDir, err := resolveDataDir(cli)
	if err != nil {
		return err
	}
	guard, err := platform.AcquireSingleInstance(appName, dataDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID(appID)
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink := notify.Multi{notify.NewFyneSink(fyneApp), notify.NewBellSink(os.Stdout)}
	w, err := openWidgets(ctx, cli, logger, sink)
	if err != nil {
		return err
	}
	defer w.Close()

	serveMetrics(ctx, cli.MetricsAddr, w.recorder, logger)

	settingsPath := w.stores.settingsPath()
	watcher, err := storage.NewSettingsWatcher(settingsPath, w.pomodoro.ApplySettings, logger)
	if err != nil {
		logger.Warn("Settings hot reload disabled", logfields.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("Settings hot reload disabled", logfields.Error(err))
	} else {
		defer func() {
			_ = watcher.Stop()
		}()
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("thetool is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	prefsWindow := preferences.New(fyneApp, w.pomodoro.Settings(), func(settings model.PomodoroSettings) {
		applySettings(w.pomodoro, settingsPath, settings, logger)
	}, w.timer.SetClock)

	var trayManager *tray.Manager
	trayManager = tray.New(desktopApp, timer.Presets, tray.Callbacks{
		OnPreferences: func() {
			prefsWindow.UpdateSettings(w.pomodoro.Settings())
			prefsWindow.Show()
		},
		OnTogglePomodoro: func() {
			if w.pomodoro.Running() {
				w.pomodoro.Pause()
			} else {
				w.pomodoro.Start()
			}
		},
		OnSkipPhase:     w.pomodoro.Skip,
		OnResetPomodoro: w.pomodoro.Reset,
		OnToggleSound: func() {
			trayManager.SetSound(toggleSound(w.pomodoro, settingsPath, logger))
		},
		OnToggleTimer: func() {
			if w.timer.Running() {
				w.timer.Pause()
			} else {
				w.timer.Start()
			}
		},
		OnResetTimer:  w.timer.Reset,
		OnTimerPreset: w.timer.Preset,
		OnQuit:        fyneApp.Quit,
	})

	view := &trayView{app: desktopApp, tray: trayManager, scheduler: w.pomodoro}
	view.showPomodoro(pomodoroEvent(w.pomodoro))
	view.showTimer(time.Duration(w.timer.Remaining())*time.Second, w.timer.Running())
	trayManager.SetSound(w.pomodoro.Settings().SoundEnabled)

	go view.follow(w.pomodoro.Subscribe(16), w.timer.Subscribe(16))
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		fyne.Do(fyneApp.Quit)
	}()

	fyneApp.Run()
	return nil
}

type trayView struct {
	app       desktop.App
	tray      *tray.Manager
	scheduler *pomodoro.Scheduler
}

// follow mirrors widget events into the tray until both streams close.
func (view *trayView) follow(pomodoroEvents, timerEvents <-chan countdown.Event) {
	for pomodoroEvents != nil || timerEvents != nil {
		select {
		case event, ok := <-pomodoroEvents:
			if !ok {
				pomodoroEvents = nil
				continue
			}
			fyne.Do(func() { view.showPomodoro(event) })
		case event, ok := <-timerEvents:
			if !ok {
				timerEvents = nil
				continue
			}
			fyne.Do(func() { view.showTimer(event.Remaining, event.Running) })
		}
	}
}

func (view *trayView) showPomodoro(event countdown.Event) {
	if event.Type == countdown.EventCompleted {
		return
	}
	phase := pomodoro.Phase(event.Phase)
	view.tray.SetPomodoro(phase.Label(), event.Remaining, event.Running, view.scheduler.CompletedSessions())

	state := resources.IconFocus
	switch {
	case !event.Running:
		state = resources.IconPaused
	case phase != pomodoro.PhaseFocus:
		state = resources.IconBreak
	}
	view.app.SetSystemTrayIcon(resources.Icon(state, event.Progress))
}

func (view *trayView) showTimer(remaining time.Duration, running bool) {
	view.tray.SetTimer(remaining, running)
}

func pomodoroEvent(scheduler *pomodoro.Scheduler) countdown.Event {
	snapshot := scheduler.Snapshot().Countdown
	return countdown.Event{
		Type:      countdown.EventStateChange,
		Phase:     string(scheduler.Phase()),
		Remaining: time.Duration(snapshot.RemainingSeconds) * time.Second,
		Running:   snapshot.Running,
		Progress:  countdown.Progress(snapshot.TotalDurationSeconds, snapshot.RemainingSeconds),
	}
}
