package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is called with the freshly loaded config after the file on
// disk changes.
type ReloadCallback func(cfg *Config)

// Watcher reloads the configuration when the config file changes on disk.
// Editors replace files with rename+create, so it watches the parent
// directory and debounces bursts of events.
type Watcher struct {
	watcher    *fsnotify.Watcher
	loader     *Loader
	onReload   ReloadCallback
	logger     zerolog.Logger
	debounce   time.Duration
	done       chan struct{}
	timerMu    sync.Mutex
	timer      *time.Timer
	stopOnce   sync.Once
	configPath string
}

// NewWatcher creates a config file watcher
func NewWatcher(loader *Loader, onReload ReloadCallback, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:    fsw,
		loader:     loader,
		onReload:   onReload,
		logger:     logger,
		debounce:   250 * time.Millisecond,
		done:       make(chan struct{}),
		configPath: loader.GetConfigPath(),
	}, nil
}

// Start starts watching the config file's directory
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.eventLoop()

	w.logger.Info().Str("path", w.configPath).Msg("Config watcher started")
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to reload config, keeping previous")
		return
	}

	w.logger.Info().Msg("Config reloaded")
	w.onReload(cfg)
}
