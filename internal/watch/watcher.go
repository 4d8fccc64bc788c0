// Package watch observes the protected config file set and reports every
// change. Parent directories are watched because editors replace files by
// rename, which drops inotify watches placed on the files themselves.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault folds editor write bursts into one notification.
const debounceDefault = 200 * time.Millisecond

// Change describes one observed modification to a protected file.
type Change struct {
	Path string
	Op   string
}

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	files    map[string]bool // absolute protected paths
	dirs     []string        // parent dirs to register
	handler  func(Change)
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher over the given files. handler is invoked once per
// debounced change.
func New(files []string, handler func(Change), logger *slog.Logger) *Watcher {
	fileSet := make(map[string]bool, len(files))
	dirSet := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		fileSet[abs] = true
		dirSet[filepath.Dir(abs)] = true
	}

	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}

	return &Watcher{
		files:    fileSet,
		dirs:     dirs,
		handler:  handler,
		debounce: debounceDefault,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled. Directories that do not exist are
// skipped with a warning; if none can be watched, Run fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watching := 0
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		watching++
	}
	if watching == 0 {
		return fmt.Errorf("no watchable directories among protected files")
	}

	// pending collects changes that passed the filter; a single timer
	// resets on each event and flushes the whole batch when it fires.
	var mu sync.Mutex
	pending := make(map[string]Change)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		mu.Lock()
		batch := make([]Change, 0, len(pending))
		for _, c := range pending {
			batch = append(batch, c)
		}
		pending = make(map[string]Change)
		mu.Unlock()

		for _, c := range batch {
			w.handler(c)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			pending[abs] = Change{Path: abs, Op: event.Op.String()}
			mu.Unlock()

			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
