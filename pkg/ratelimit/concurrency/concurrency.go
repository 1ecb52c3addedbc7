// Package concurrency provides a permit limiter capping how many
// operations run at once.
package concurrency

import (
	"context"
	"sync"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
)

// Limiter hands out a fixed number of permits.
type Limiter struct {
	mu        sync.Mutex
	capacity  int
	available int
	waiters   []chan struct{}
}

// New creates a Limiter with capacity permits.
func New(capacity int) (*Limiter, error) {
	if capacity <= 0 {
		return nil, pferrors.NewValidationError("concurrency", "capacity", capacity, "must be positive").
			WithHint("capacity determines how many operations may run at once")
	}
	return &Limiter{capacity: capacity, available: capacity}, nil
}

// Acquire takes a permit if one is free. It does not block.
func (l *Limiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.available > 0 {
		l.available--
		return true
	}
	return false
}

// Wait blocks until a permit is taken or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()
	if l.available > 0 {
		l.available--
		l.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		if !l.removeWaiter(ready) {
			// handed a permit while giving up
			l.Release()
		}
		return ctx.Err()
	}
}

// Release returns a permit, handing it to the oldest waiter if any.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.waiters) > 0 {
		close(l.waiters[0])
		l.waiters = l.waiters[1:]
		return
	}
	if l.available == l.capacity {
		panic("concurrency: released more permits than acquired")
	}
	l.available++
}

// Capacity returns the number of permits.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// InUse returns the number of permits currently taken.
func (l *Limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity - l.available
}

// removeWaiter reports whether ready was still queued.
func (l *Limiter) removeWaiter(ready chan struct{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, w := range l.waiters {
		if w == ready {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return true
		}
	}
	return false
}
