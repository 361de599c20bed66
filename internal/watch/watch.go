// Package watch reports changes below a directory tree, coalescing bursts
// of filesystem events into one notification.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	sfs "github.com/tormodhaugland/stencil/internal/fs"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a directory and all of its subdirectories.
type Watcher struct {
	root     string
	debounce time.Duration
	exclude  []string
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExcludes skips directories and files matching ignore-style patterns.
func WithExcludes(patterns []string) Option {
	return func(w *Watcher) { w.exclude = patterns }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching root recursively. Close releases the watcher.
func New(root string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     abs,
		debounce: DefaultDebounce,
		exclude:  sfs.DefaultScanExcludes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	if err := w.addRecursive(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

// Run delivers batches of changed paths, relative to the root and sorted, to
// onChange until ctx is cancelled or the watcher is closed. onChange runs on
// Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.relevant(event)
			if !ok {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			w.logger.Debug("change detected", "root", w.root, "paths", len(paths))
			onChange(paths)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "root", w.root, "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if sfs.Excluded(w.exclude, rel, false) || w.insideExcludedDir(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) insideExcludedDir(rel string) bool {
	for dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
		if sfs.Excluded(w.exclude, dir, true) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// unreadable subdirectories are skipped like the scanner does
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, relErr := filepath.Rel(w.root, path)
			if relErr == nil && sfs.Excluded(w.exclude, filepath.ToSlash(rel), true) {
				return fs.SkipDir
			}
		}
		return w.fsw.Add(path)
	})
}
