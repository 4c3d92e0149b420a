// Package watcher turns glob patterns into a stream of file change events.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// ErrNoFiles is returned when no pattern matches an existing file.
var ErrNoFiles = errors.New("no files matched")

// Event represents a file change detected by the watcher.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors access logs for changes using OS-level notifications.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	Events chan Event

	mu    sync.RWMutex
	paths []string
}

// New creates a Watcher for the given glob patterns.
// Patterns are expanded once at startup; files created later under a pattern are not picked up.
func New(patterns []string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		logger: logger,
		Events: make(chan Event, 256),
	}

	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			logger.Warn("watcher: failed to expand pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			if err := fsw.Add(abs); err != nil {
				logger.Warn("watcher: cannot watch file", "path", abs, "error", err)
				continue
			}
			seen[abs] = true
			w.paths = append(w.paths, abs)
		}
	}

	if len(w.paths) == 0 {
		fsw.Close()
		return nil, ErrNoFiles
	}
	logger.Info("watcher: watching files", "count", len(w.paths))
	return w, nil
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher: notify error", "error", err)
		}
	}
}

// Paths returns the files currently being watched.
func (w *Watcher) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.paths...)
}

// FileCount returns the number of watched files.
func (w *Watcher) FileCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// ReWatch adds a path back to the watcher after rotation.
func (w *Watcher) ReWatch(path string) error {
	return w.fsw.Add(path)
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like /var/log/nginx/**/access*.log.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
