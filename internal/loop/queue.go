// Package loop marshals work from background goroutines onto the render thread.
//
// Loads fetch and decode on their own goroutines, but scene mutation, GL
// uploads and event publishing must happen on the thread that owns the window.
// Background code posts closures here and the frame loop drains them once per tick.
package loop

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of closures.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	ready   chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Post enqueues fn. Safe to call from any goroutine; never blocks.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Len returns the number of queued closures.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs everything queued so far, in order, and returns how many ran.
// Closures posted while draining run on the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Wait blocks until at least one closure is queued, then drains the queue.
func (q *Queue) Wait(ctx context.Context) (int, error) {
	for {
		if n := q.Drain(); n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-q.ready:
		}
	}
}

// RunUntil drains the queue until done reports true or ctx ends.
func (q *Queue) RunUntil(ctx context.Context, done func() bool) error {
	for !done() {
		if _, err := q.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
