// Package eventloop provides the single owner goroutine for controller state.
//
// Everything that touches facets, the controller or the pager runs on the
// loop. Blocking work (network calls) runs off the loop via Scheduler.Go and
// hands a continuation back, so state is never shared across goroutines.
package eventloop

import (
	"context"
	"errors"
)

// ErrStopped is returned by Do when the loop is no longer running.
var ErrStopped = errors.New("eventloop: stopped")

// Scheduler runs blocking work off the loop and applies its continuation on it.
type Scheduler interface {
	// Go runs work on another goroutine. The function work returns, if non-nil,
	// is executed on the loop.
	Go(work func() func())
}

// Loop is a FIFO of functions executed by the goroutine calling Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

// New creates a loop with the given queue capacity.
func New(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post enqueues fn. It blocks while the queue is full and drops fn once the
// loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
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

// Go implements Scheduler.
func (l *Loop) Go(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

var _ Scheduler = (*Loop)(nil)
