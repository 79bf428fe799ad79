package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce — пауза, за которую серия событий сворачивается
// в одну перезагрузку.
const DefaultWatchDebounce = 750 * time.Millisecond

// Watcher следит за файлами конфигурации и вызывает OnChange
// после серии изменений.
//
// Наблюдается каталог, а не файл: редакторы часто сохраняют через
// переименование временного файла.
type Watcher struct {
	paths    map[string]struct{}
	onChange func()
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherConfig — конфигурация Watcher.
type WatcherConfig struct {
	// Paths — наблюдаемые файлы (config.yaml, профиль).
	Paths []string

	// OnChange вызывается после изменения любого из файлов.
	OnChange func()

	// Debounce (default: DefaultWatchDebounce).
	Debounce time.Duration

	Logger *slog.Logger
}

// NewWatcher создаёт Watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if len(cfg.Paths) == 0 || cfg.OnChange == nil {
		return nil, fmt.Errorf("watcher: paths and OnChange are required")
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		paths[filepath.Clean(p)] = struct{}{}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		paths:    paths,
		onChange: cfg.OnChange,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run наблюдает за файлами до отмены ctx.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsWatcher.Close()

	dirs := make(map[string]struct{})
	for p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.logger.Info("watching configuration", "files", len(w.paths))

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if _, ok := w.paths[filepath.Clean(event.Name)]; !ok {
		return
	}
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
