// Package reactive defines the Reactive Streams protocol primitives that
// every publisher and operator in rstream obeys: a Publisher hands a
// Subscription to a Subscriber, which then pulls items through it by
// calling Request, and may Cancel it at any time.
//
// The shapes here mirror the classic Publisher/Subscriber/Subscription
// trio (itself modeled on the Java io.reactivestreams /
// java.util.concurrent.Flow interfaces), expressed with a type parameter
// so each subscription is typed end to end.
package reactive

import (
	"go.uber.org/zap"

	"github.com/flowkit/rstream/internal/rslog"
)

// Subscriber consumes a sequence of items plus at most one terminal
// signal. The legal call order is: OnSubscribe exactly once, then zero or
// more OnNext, then at most one of OnComplete or OnError.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(item T)
	OnError(err error)
	OnComplete()
}

// Subscription is the per-subscriber handle used to pull demand and
// cancel. Request and Cancel must be safe to call concurrently with each
// other and with signal delivery.
type Subscription interface {
	// Request authorizes the delivery of up to n further OnNext signals.
	// n <= 0 is a protocol violation: the publisher must respond with
	// OnError(IllegalArgument) and cancel.
	Request(n int64)
	// Cancel is idempotent. After it returns, at most one further OnNext
	// may still be delivered if one was already in flight.
	Cancel()
}

// Publisher produces a sequence of items to a single Subscriber per
// subscription. Each call to Subscribe creates an independent
// subscription.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// Processor is both ends of a one-to-one pipeline stage: it subscribes to
// an upstream Publisher[T] and republishes as a Publisher[K].
type Processor[T, K any] interface {
	Subscriber[T]
	Publisher[K]
}

// NoopSubscription ignores Request and Cancel. It exists so a publisher
// can call OnSubscribe before immediately calling OnError or OnComplete,
// without pretending to support real demand.
type NoopSubscription struct{}

func (NoopSubscription) Request(int64) {}
func (NoopSubscription) Cancel()       {}

var log = rslog.Named("reactive")

// SubscriberFunc assembles a Subscriber[T] from plain functions. Any nil
// field gets a reasonable default: OnNext/OnComplete become no-ops,
// OnError logs via rslog instead of silently dropping the failure.
type SubscriberFunc[T any] struct {
	OnSubscribeFunc func(Subscription)
	OnNextFunc      func(T)
	OnErrorFunc     func(error)
	OnCompleteFunc  func()
}

func (f SubscriberFunc[T]) OnSubscribe(s Subscription) {
	if f.OnSubscribeFunc != nil {
		f.OnSubscribeFunc(s)
	}
}

func (f SubscriberFunc[T]) OnNext(item T) {
	if f.OnNextFunc != nil {
		f.OnNextFunc(item)
	}
}

func (f SubscriberFunc[T]) OnError(err error) {
	if f.OnErrorFunc != nil {
		f.OnErrorFunc(err)
		return
	}
	log.Warn("unhandled subscriber error", zap.Error(err))
}

func (f SubscriberFunc[T]) OnComplete() {
	if f.OnCompleteFunc != nil {
		f.OnCompleteFunc()
	}
}

// SubscriptionFunc assembles a Subscription from plain functions.
type SubscriptionFunc struct {
	RequestFunc func(int64)
	CancelFunc  func()
}

func (f SubscriptionFunc) Request(n int64) {
	if f.RequestFunc != nil {
		f.RequestFunc(n)
	}
}

func (f SubscriptionFunc) Cancel() {
	if f.CancelFunc != nil {
		f.CancelFunc()
	}
}
