// Package loop provides the single goroutine all UI work runs on.
//
// Store mutations, renders and event listeners only ever execute inside
// Run, one task at a time, so no two of them interleave. Work that waits
// (device enumeration, lookups, serial reads) happens on other goroutines
// and posts its continuation back with Post.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Run once the loop has been stopped.
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize is the task buffer used by New(0).
const DefaultQueueSize = 64

// Loop is a serial task queue.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a loop with the given queue size.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// reports false if the loop stopped before fn could be queued.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued tasks until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stop ends Run. Tasks still queued are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
