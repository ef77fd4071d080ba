package completion

import (
	"reflect"
	"sync"

	"go.uber.org/atomic"

	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
)

// isNilValue reports whether v is a nil pointer, interface, map, slice,
// channel, or function, the same "is there a representable null here"
// check source.isNilValue/operator.isNil perform, duplicated rather than
// shared since sharing it would mean an import cycle or a third
// micro-package for one five-line function.
func isNilValue[T any](v T) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// futurePublisher adapts a Future[T] supplier into a single-item cold
// Publisher: the future is created fresh per subscription, waiting to
// deliver is released only once downstream has requested at least one
// item, and a downstream cancel abandons the wait without ever calling
// back into the subscriber again.
type futurePublisher[T any] struct {
	supplier func() *Future[T]
}

// FromFuture creates a Publisher that, once subscribed and requested,
// waits for a freshly supplied Future to settle: a non-nil value emits
// OnNext followed by OnComplete, a nil value emits a bare OnComplete with
// no item, and a rejected Future emits OnError.
func FromFuture[T any](supplier func() *Future[T]) reactive.Publisher[T] {
	if supplier == nil {
		panic(rserr.Illegalf("the future supplier cannot be nil"))
	}
	return futurePublisher[T]{supplier: supplier}
}

func (p futurePublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	future, err := safeSupplyFuture(p.supplier)
	if err != nil {
		subscriber.OnSubscribe(reactive.NoopSubscription{})
		subscriber.OnError(err)
		return
	}
	if future == nil {
		subscriber.OnSubscribe(reactive.NoopSubscription{})
		subscriber.OnError(rserr.Violationf("the future supplier produced a nil future"))
		return
	}
	sub := &futureSubscription[T]{
		subscriber: subscriber,
		future:     future,
		released:   make(chan struct{}),
		cancelled:  make(chan struct{}),
	}
	subscriber.OnSubscribe(sub)
	// Demand requested from inside OnSubscribe against an already settled
	// future is delivered synchronously; otherwise delivery waits on a
	// background goroutine.
	if sub.requested.Load() {
		select {
		case <-future.Done():
			sub.await()
			return
		default:
		}
	}
	go sub.await()
}

func safeSupplyFuture[T any](supplier func() *Future[T]) (future *Future[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("future supplier panicked: %v", r)
		}
	}()
	return supplier(), nil
}

type futureSubscription[T any] struct {
	subscriber reactive.Subscriber[T]
	future     *Future[T]

	requested atomic.Bool
	signalled atomic.Bool

	released  chan struct{}
	cancelled chan struct{}
	closeOnce sync.Once
}

func (s *futureSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.terminate(rserr.Illegalf("the request amount must be strictly positive, got %d", n))
		s.Cancel()
		return
	}
	if s.requested.CompareAndSwap(false, true) {
		close(s.released)
	}
}

func (s *futureSubscription[T]) Cancel() {
	s.closeOnce.Do(func() { close(s.cancelled) })
}

func (s *futureSubscription[T]) await() {
	select {
	case <-s.released:
	case <-s.cancelled:
		return
	}
	select {
	case <-s.future.Done():
	case <-s.cancelled:
		return
	}
	select {
	case <-s.cancelled:
		return
	default:
	}
	v, err := s.future.value, s.future.err
	if err != nil {
		s.terminate(err)
		return
	}
	if !s.signalled.CompareAndSwap(false, true) {
		return
	}
	if isNilValue(v) {
		s.subscriber.OnComplete()
		return
	}
	s.subscriber.OnNext(v)
	s.subscriber.OnComplete()
}

func (s *futureSubscription[T]) terminate(err error) {
	if !s.signalled.CompareAndSwap(false, true) {
		return
	}
	s.subscriber.OnError(err)
}

// ToFuture subscribes to p and resolves a Future with the first item it
// produces, wrapped as Present, cancelling the subscription immediately
// afterward, or resolves to an absent Optional if p completes with no
// items, or rejects the Future if p errors. Only the first of those
// three outcomes has any effect.
func ToFuture[T any](p reactive.Publisher[T]) *Future[Optional[T]] {
	future := NewFuture[Optional[T]]()
	settled := atomic.Bool{}
	var subscription reactive.Subscription
	p.Subscribe(reactive.SubscriberFunc[T]{
		OnSubscribeFunc: func(s reactive.Subscription) {
			subscription = s
			s.Request(1)
		},
		OnNextFunc: func(v T) {
			if settled.CompareAndSwap(false, true) {
				future.Resolve(Optional[T]{Present: true, Value: v})
			}
			if subscription != nil {
				subscription.Cancel()
			}
		},
		OnErrorFunc: func(err error) {
			if settled.CompareAndSwap(false, true) {
				future.Reject(err)
			}
		},
		OnCompleteFunc: func() {
			if settled.CompareAndSwap(false, true) {
				future.Resolve(Optional[T]{})
			}
		},
	})
	return future
}
