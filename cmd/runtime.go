package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"thetool/internal/core/pomodoro"
	"thetool/internal/core/timer"
	"thetool/internal/logfields"
	"thetool/internal/metrics"
	"thetool/internal/notify"
	"thetool/internal/platform"
	"thetool/internal/storage"
)

const (
	stateFileName   = "state.db"
	natsDialTimeout = 5 * time.Second
)

// stores opens the device-local sqlite store and, when configured, the synced NATS store.
// An unreachable NATS server only disables sync.
type stores struct {
	dataDir string
	local   *storage.SQLiteStore
	synced  storage.Store
}

func resolveDataDir(cli *CLI) (string, error) {
	if cli.DataDir != "" {
		return cli.DataDir, nil
	}
	return storage.DefaultDataDir(appName)
}

func openStores(ctx context.Context, cli *CLI, logger *slog.Logger) (*stores, error) {
	dataDir, err := resolveDataDir(cli)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	local, err := storage.NewSQLiteStore(filepath.Join(dataDir, stateFileName))
	if err != nil {
		return nil, err
	}
	opened := &stores{dataDir: dataDir, local: local}

	dialCtx, cancel := context.WithTimeout(ctx, natsDialTimeout)
	defer cancel()
	synced, err := storage.NewNATSStore(dialCtx, storage.NATSConfig{URL: cli.NATSURL, Bucket: cli.NATSBucket})
	switch {
	case err == nil:
		opened.synced = synced
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Debug("Synced store disabled")
	default:
		logger.Warn("Synced store unavailable, notes stay local", logfields.Store("synced"), logfields.Error(err))
	}
	return opened, nil
}

func (s *stores) settingsPath() string {
	return filepath.Join(s.dataDir, storage.SettingsFileName)
}

func (s *stores) Close() {
	if s.synced != nil {
		_ = s.synced.Close()
	}
	_ = s.local.Close()
}

// widgets is the assembled set of countdown consumers sharing one ticker and recorder.
// Notes are served by the notes subcommands, which open their own stores.
type widgets struct {
	stores   *stores
	ticker   *platform.CronTicker
	recorder *metrics.PrometheusRecorder
	pomodoro *pomodoro.Scheduler
	timer    *timer.Timer
}

func openWidgets(ctx context.Context, cli *CLI, logger *slog.Logger, sink notify.Sink) (*widgets, error) {
	opened, err := openStores(ctx, cli, logger)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	ticker, err := platform.NewCronTicker(clock, logger)
	if err != nil {
		opened.Close()
		return nil, err
	}

	settings, found, err := storage.LoadSettings(opened.settingsPath())
	if err != nil {
		logger.Warn("Using default settings", logfields.Path(opened.settingsPath()), logfields.Error(err))
	} else if !found {
		if err := storage.SaveSettings(opened.settingsPath(), settings); err != nil {
			logger.Warn("Failed to write default settings", logfields.Path(opened.settingsPath()), logfields.Error(err))
		}
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	dispatcher := notify.NewDispatcher(sink, logger)
	w := &widgets{
		stores:   opened,
		ticker:   ticker,
		recorder: recorder,
		pomodoro: pomodoro.New(pomodoro.Config{
			Settings: settings,
			Clock:    clock,
			Ticker:   ticker,
			Store:    opened.local,
			Notifier: dispatcher,
			Metrics:  recorder,
			Logger:   logger,
		}),
		timer: timer.New(timer.Config{
			Clock:    clock,
			Ticker:   ticker,
			Store:    opened.local,
			Notifier: dispatcher,
			Metrics:  recorder,
			Logger:   logger,
		}),
	}

	w.pomodoro.Activate(ctx)
	// The settings file wins over the settings stored with the snapshot.
	if found {
		w.pomodoro.ApplySettings(settings)
	}
	w.timer.Activate(ctx)
	return w, nil
}

func (w *widgets) Close() {
	w.pomodoro.Close()
	w.timer.Close()
	_ = w.ticker.Shutdown()
	w.stores.Close()
}

// serveMetrics exposes the recorder until ctx ends. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, recorder *metrics.PrometheusRecorder, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}

	go func() {
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
