// Package worker runs background jobs for a single owner with
// last-requested-wins semantics.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is reported for a job whose result was dropped because a
// newer job was submitted before it finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Outcome is delivered once per submitted job.
type Outcome[T any] struct {
	Value T
	Err   error
	// Stale is true when the job finished after a newer one was submitted;
	// its value was not installed.
	Stale bool
}

// Latest serialises jobs of one owner. Submitting a job cancels the one in
// flight, waits for it to exit before starting, and installs the new result
// only if no newer job was submitted meanwhile. At most one job runs at a
// time and installs happen in submission order.
//
// The zero value is ready to use.
type Latest[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Submit starts run in a new goroutine. install is called with the job's
// value, under the Latest's lock, only if the job succeeded and is still the
// newest one. The returned channel receives exactly one Outcome and is then
// closed.
func (l *Latest[T]) Submit(ctx context.Context, run func(context.Context) (T, error), install func(T)) <-chan Outcome[T] {
	out := make(chan Outcome[T], 1)

	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	prev := l.done
	done := make(chan struct{})
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(out)
		defer close(done)
		defer cancel()

		if prev != nil {
			<-prev
		}

		var value T
		var err error
		if err = jobCtx.Err(); err == nil {
			value, err = run(jobCtx)
		}

		l.mu.Lock()
		stale := gen != l.gen
		if !stale && err == nil && install != nil {
			install(value)
		}
		if !stale {
			l.cancel = nil
		}
		l.mu.Unlock()

		if stale {
			err = errors.Join(ErrSuperseded, err)
		}
		out <- Outcome[T]{Value: value, Err: err, Stale: stale}
	}()

	return out
}

// Cancel aborts the job in flight, if any. Its outcome is reported as stale.
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Wait blocks until the most recently submitted job has exited.
func (l *Latest[T]) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}
