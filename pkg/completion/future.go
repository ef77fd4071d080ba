// Package completion bridges the reactive world and the single-value
// async world: Future is Go's analogue of a CompletionStage. The standard
// library has no equivalent type, so this builds one from a done channel
// plus a context-aware Get.
package completion

import (
	"context"

	"go.uber.org/atomic"
)

// Future is a single-assignment promise: exactly one of Resolve or
// Reject may take effect, whichever happens first.
type Future[T any] struct {
	done     chan struct{}
	resolved atomic.Bool
	value    T
	err      error
}

// NewFuture creates an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future successfully. Subsequent calls to Resolve
// or Reject are no-ops.
func (f *Future[T]) Resolve(v T) {
	if !f.resolved.CompareAndSwap(false, true) {
		return
	}
	f.value = v
	close(f.done)
}

// Reject completes the future with an error. Subsequent calls to Resolve
// or Reject are no-ops.
func (f *Future[T]) Reject(err error) {
	if !f.resolved.CompareAndSwap(false, true) {
		return
	}
	f.err = err
	close(f.done)
}

// Done returns a channel closed once the future is resolved or rejected.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future completes or ctx is done, whichever comes
// first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
