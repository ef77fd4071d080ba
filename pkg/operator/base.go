// Package operator provides the shared one-to-one operator plumbing
// (Base) and the two concrete operators built on it, Transform (map) and
// Select (filter).
package operator

import (
	"go.uber.org/atomic"

	"github.com/flowkit/rstream/pkg/reactive"
)

// Base factors out the state machine every one-to-one operator needs: it
// forwards Request/Cancel upstream, tracks cancellation once, and hands
// subclasses a downstream() accessor. Embed it and implement OnNext.
type Base[T, K any] struct {
	downstream reactive.Subscriber[K]
	upstream   atomic.Value // reactive.Subscription, set once on upstream OnSubscribe
	cancelled  atomic.Bool
	terminated atomic.Bool
}

// Downstream returns the subscriber this operator forwards results to.
func (b *Base[T, K]) Downstream() reactive.Subscriber[K] {
	return b.downstream
}

// Cancelled reports whether Cancel has already run.
func (b *Base[T, K]) Cancelled() bool {
	return b.cancelled.Load()
}

// Cancel marks this operator cancelled and forwards Cancel upstream
// exactly once, regardless of how many times Cancel is itself called.
func (b *Base[T, K]) Cancel() {
	if b.cancelled.CompareAndSwap(false, true) {
		if s, ok := b.upstream.Load().(reactive.Subscription); ok && s != nil {
			s.Cancel()
		}
	}
}

// OnSubscribe records the upstream subscription and hands the downstream
// subscriber a forwarding Subscription: Request relays upstream,
// Cancel invokes Base.Cancel.
func (b *Base[T, K]) OnSubscribe(s reactive.Subscription) {
	b.upstream.Store(s)
	b.downstream.OnSubscribe(reactive.SubscriptionFunc{
		RequestFunc: s.Request,
		CancelFunc:  b.Cancel,
	})
}

// OnError forwards the failure downstream exactly once.
func (b *Base[T, K]) OnError(err error) {
	if b.terminated.CompareAndSwap(false, true) {
		b.downstream.OnError(err)
	}
}

// OnComplete forwards completion downstream exactly once.
func (b *Base[T, K]) OnComplete() {
	if b.terminated.CompareAndSwap(false, true) {
		b.downstream.OnComplete()
	}
}

// bind attaches the downstream subscriber this operator will forward to.
// Subclasses call this from their Subscribe implementation before
// subscribing to the upstream publisher.
func (b *Base[T, K]) bind(downstream reactive.Subscriber[K]) {
	b.downstream = downstream
}
