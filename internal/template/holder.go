package template

import (
	"context"
	"sync/atomic"

	"github.com/tormodhaugland/stencil/internal/worker"
)

// Holder owns the current Set of a project. Readers call Current without
// locking; loads run in the background and only the most recently requested
// one is installed.
type Holder struct {
	cur  atomic.Pointer[Set]
	jobs worker.Latest[*Set]
	opts []Option
}

// NewHolder returns an empty Holder that loads with opts.
func NewHolder(opts ...Option) *Holder {
	return &Holder{opts: opts}
}

// Current returns the installed set, or nil before the first successful
// load.
func (h *Holder) Current() *Set { return h.cur.Load() }

// Load loads root in the background. A failed load leaves the current set
// in place.
func (h *Holder) Load(ctx context.Context, root string) <-chan worker.Outcome[*Set] {
	return h.jobs.Submit(ctx, func(ctx context.Context) (*Set, error) {
		return Load(ctx, root, h.opts...)
	}, h.cur.Store)
}

// Reload loads the root of the current set again. It reports nothing to
// reload as a closed channel carrying no outcome.
func (h *Holder) Reload(ctx context.Context) <-chan worker.Outcome[*Set] {
	cur := h.Current()
	if cur == nil {
		ch := make(chan worker.Outcome[*Set])
		close(ch)
		return ch
	}
	return h.Load(ctx, cur.Root())
}

// Wait blocks until the newest load has finished.
func (h *Holder) Wait() { h.jobs.Wait() }

// Close cancels a load in flight.
func (h *Holder) Close() {
	h.jobs.Cancel()
	h.jobs.Wait()
}
