package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/testbridge/pkg/ir"
)

// CacheInvalidator is implemented by providers that cache parsed trees
// (the canonical loader does); the watcher drops stale entries before
// re-running the pipeline.
type CacheInvalidator interface {
	Invalidate(filePath string)
}

// WatchOptions configures the file watcher.
type WatchOptions struct {
	// DebounceMs groups rapid successive writes into one rebuild.
	DebounceMs int
}

// DefaultWatchOptions returns the default debounce window.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{DebounceMs: 200}
}

// Watcher re-runs the pipeline whenever one of the project's source files
// changes on disk.
//
// Test-automation projects are small enough that a full per-project rerun
// (with parsed-tree caching for unchanged files) stays well under a
// second, so the watcher rebuilds the whole bundle rather than patching
// it incrementally.
type Watcher struct {
	pipeline *Pipeline
	cfg      Config
	onResult func(*ir.Bundle, error)
	options  WatchOptions
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	watched map[string]bool

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher. onResult receives every rebuild outcome,
// including failures.
func NewWatcher(p *Pipeline, cfg Config, options WatchOptions, onResult func(*ir.Bundle, error), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = DefaultWatchOptions().DebounceMs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Watcher{
		pipeline:       p,
		cfg:            cfg,
		onResult:       onResult,
		options:        options,
		logger:         logger,
		watcher:        fsw,
		watched:        make(map[string]bool),
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start resolves the configured source files, watches their directories,
// runs one initial build, and then rebuilds on every change.
func (w *Watcher) Start() error {
	files, err := expandSourceFiles(w.cfg.SourceFiles)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return &ir.ConfigError{Project: w.cfg.ProjectName, Msg: "sourceFiles matched no files"}
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		w.watched[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	w.logger.Info("watch started", "files", len(files), "dirs", len(dirs))

	w.rebuild("")
	go w.eventLoop()
	return nil
}

// Stop shuts the watcher down. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("watch stopped")
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.watched[event.Name] {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)
	w.debounceRebuild(event.Name)
}

// debounceRebuild schedules a rebuild once the debounce window for the
// changed file closes. Rapid successive events collapse into one run.
func (w *Watcher) debounceRebuild(filePath string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[filePath]; exists {
		timer.Stop()
	}
	w.debounceTimers[filePath] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.rebuild(filePath)

			w.debounceMu.Lock()
			delete(w.debounceTimers, filePath)
			w.debounceMu.Unlock()
		},
	)
}

func (w *Watcher) rebuild(changed string) {
	if changed != "" {
		if inv, ok := w.pipeline.provider.(CacheInvalidator); ok {
			inv.Invalidate(changed)
		}
		w.logger.Info("rebuilding", "changed", changed)
	}

	bundle, err := w.pipeline.Run(w.cfg)
	if err != nil {
		w.logger.Error("rebuild failed", "error", err)
	}
	if w.onResult != nil {
		w.onResult(bundle, err)
	}
}
