package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"thetool/internal/core/model"
	"thetool/internal/logfields"
)

// SettingsWatcher reloads the settings file when it changes and hands the result to onChange.
type SettingsWatcher struct {
	path         string
	watcher      *fsnotify.Watcher
	onChange     func(model.PomodoroSettings)
	logger       *slog.Logger
	debounceTime time.Duration
	stopOnce     sync.Once
	stopCh       chan struct{}
	reloadCh     chan struct{}
}

// NewSettingsWatcher creates a watcher for the settings file at path.
func NewSettingsWatcher(path string, onChange func(model.PomodoroSettings), logger *slog.Logger) (*SettingsWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	return &SettingsWatcher{
		path:         absPath,
		watcher:      watcher,
		onChange:     onChange,
		logger:       logger,
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		reloadCh:     make(chan struct{}, 1),
	}, nil
}

// Start watches the directory holding the settings file. Editors often replace files
// instead of writing in place, so the directory is more reliable than the file itself.
func (sw *SettingsWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(sw.path)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings directory %s: %w", dir, err)
	}

	sw.logger.Info("Watching settings file", logfields.Path(sw.path))
	go sw.watchLoop(ctx)
	go sw.reloadLoop(ctx)
	return nil
}

// Stop ends both loops and closes the underlying watcher.
func (sw *SettingsWatcher) Stop() error {
	var err error
	sw.stopOnce.Do(func() {
		close(sw.stopCh)
		err = sw.watcher.Close()
	})
	return err
}

func (sw *SettingsWatcher) watchLoop(ctx context.Context) {
	fileName := filepath.Base(sw.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				sw.triggerReload()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warn("Settings watcher error", logfields.Error(err))
		}
	}
}

func (sw *SettingsWatcher) triggerReload() {
	select {
	case sw.reloadCh <- struct{}{}:
	default:
	}
}

func (sw *SettingsWatcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case <-sw.reloadCh:
			// Coalesce bursts of events from a single save.
			select {
			case <-time.After(sw.debounceTime):
			case <-ctx.Done():
				return
			case <-sw.stopCh:
				return
			}
			sw.reload()
		}
	}
}

func (sw *SettingsWatcher) reload() {
	settings, found, err := LoadSettings(sw.path)
	if err != nil {
		sw.logger.Warn("Failed to reload settings", logfields.Path(sw.path), logfields.Error(err))
		return
	}
	if !found {
		return
	}
	sw.logger.Info("Settings reloaded", logfields.Path(sw.path))
	if sw.onChange != nil {
		sw.onChange(settings)
	}
}
