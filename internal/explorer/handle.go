package explorer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tormodhaugland/stencil/internal/tree"
	"github.com/tormodhaugland/stencil/internal/worker"
)

// Handle owns one Explorer for concurrent callers. Scans run off the
// caller's goroutine; a newer request supersedes an older one and only the
// newest result is installed. Readers always see the last fully installed
// tree.
type Handle struct {
	mu       sync.RWMutex
	exp      *Explorer
	path     string
	warnings []*tree.ScanError

	// pending is the root of an Open that has not finished yet. Rescan
	// targets it so a rescan never resurrects the previous root.
	pending string
	openSeq uint64

	scanner *tree.Scanner
	jobs    worker.Latest[*tree.Result]
	logger  *slog.Logger
}

// NewHandle returns an empty Handle. Open must succeed before View reports
// a tree.
func NewHandle(scanner *tree.Scanner, logger *slog.Logger) *Handle {
	if scanner == nil {
		scanner = tree.NewScanner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{scanner: scanner, logger: logger}
}

// Open scans path as a new project. On success the tree replaces the current
// one with ReplaceTree semantics.
func (h *Handle) Open(ctx context.Context, path string) <-chan worker.Outcome[*tree.Result] {
	h.mu.Lock()
	h.openSeq++
	seq := h.openSeq
	h.pending = path
	h.mu.Unlock()

	return h.jobs.Submit(ctx, func(ctx context.Context) (*tree.Result, error) {
		res, err := h.scanner.Scan(ctx, path)
		if err != nil {
			h.mu.Lock()
			if h.openSeq == seq {
				h.pending = ""
			}
			h.mu.Unlock()
		}
		return res, err
	}, func(res *tree.Result) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.install(res, false)
		h.logger.Debug("tree opened", "path", res.Path, "warnings", len(res.Warnings))
	})
}

// Rescan scans the current project again and merges the result, keeping
// expansion and selection where the paths survive.
func (h *Handle) Rescan(ctx context.Context) <-chan worker.Outcome[*tree.Result] {
	h.mu.RLock()
	path := h.path
	if h.pending != "" {
		path = h.pending
	}
	h.mu.RUnlock()

	return h.jobs.Submit(ctx, func(ctx context.Context) (*tree.Result, error) {
		if path == "" {
			return nil, ErrNoTree
		}
		return h.scanner.Scan(ctx, path)
	}, func(res *tree.Result) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.install(res, true)
		h.logger.Debug("tree rescanned", "path", res.Path, "warnings", len(res.Warnings))
	})
}

// install replaces the tree. It runs under h.mu and only for the newest job,
// so any pending Open has been answered by it.
func (h *Handle) install(res *tree.Result, merge bool) {
	switch {
	case h.exp == nil || h.path != res.Path:
		h.exp = New(res.Root)
	case merge:
		h.exp.Merge(res.Root)
	default:
		h.exp.ReplaceTree(res.Root)
	}
	h.path = res.Path
	h.warnings = res.Warnings
	h.pending = ""
}

// Wait blocks until the newest scan has finished.
func (h *Handle) Wait() { h.jobs.Wait() }

// Close cancels any scan in flight.
func (h *Handle) Close() {
	h.jobs.Cancel()
	h.jobs.Wait()
}

// Path returns the root path of the installed tree.
func (h *Handle) Path() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.path
}

// Warnings returns the warnings of the last installed scan.
func (h *Handle) Warnings() []*tree.ScanError {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*tree.ScanError(nil), h.warnings...)
}

// View calls fn with the Explorer under a read lock. fn must not retain it.
func (h *Handle) View(fn func(*Explorer)) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.exp == nil {
		return ErrNoTree
	}
	fn(h.exp)
	return nil
}

// Update calls fn with the Explorer under the write lock.
func (h *Handle) Update(fn func(*Explorer) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exp == nil {
		return ErrNoTree
	}
	return fn(h.exp)
}
