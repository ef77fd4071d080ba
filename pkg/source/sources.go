package source

import (
	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
)

// itemsPublisher is a cold publisher over a fixed, reusable slice: each
// Subscribe starts a fresh cursor over the same backing items.
type itemsPublisher[T any] struct {
	items []T
}

// FromItems creates a Publisher from existing items. Per the original
// Java source, it is a thin wrapper over FromIterable.
func FromItems[T any](items ...T) reactive.Publisher[T] {
	if items == nil {
		panic(rserr.Illegalf("the items slice cannot be nil"))
	}
	return FromIterable(items)
}

// FromIterable creates a cold Publisher over an in-memory, reusable
// collection: each subscription gets an independent cursor over the same
// backing slice, so the sequence replays identically every time.
func FromIterable[T any](items []T) reactive.Publisher[T] {
	if items == nil {
		panic(rserr.Illegalf("the iterable cannot be nil"))
	}
	return &itemsPublisher[T]{items: items}
}

func (p *itemsPublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	sub := newCursorSubscription[T](subscriber, newSliceCursor(p.items), nil)
	sub.start()
}

// streamPublisher adapts a single-use supplier (Go's analogue of a Java
// Stream that can only be traversed once) into a Publisher. The supplier
// is invoked fresh on every Subscribe, since re-subscribing to a
// single-shot source is only meaningful if it yields fresh state.
type streamPublisher[T any] struct {
	supplier func() (Cursor[T], error)
}

// FromStream creates a Publisher from a supplier of a single-use Cursor.
// The supplier is called once per subscription; a nil cursor or an error
// from the supplier is a protocol error delivered via OnError rather than
// raised synchronously, since it can only be discovered at subscribe
// time.
func FromStream[T any](supplier func() (Cursor[T], error)) reactive.Publisher[T] {
	if supplier == nil {
		panic(rserr.Illegalf("the supplier cannot be nil"))
	}
	return &streamPublisher[T]{supplier: supplier}
}

func (p *streamPublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	cursor, err := safeSupply(p.supplier)
	if err != nil {
		failFast(subscriber, err)
		return
	}
	if cursor == nil {
		failFast(subscriber, rserr.Violationf("the stream supplier produced a nil cursor"))
		return
	}
	sub := newCursorSubscription[T](subscriber, cursor, closerOf(cursor))
	sub.start()
}

// closerOf returns a closer function bound to cursor if it implements
// io.Closer-shaped resource release, so sources built over e.g. a file or
// network-backed iterator still have their resources released when the
// subscription terminates.
func closerOf[T any](cursor Cursor[T]) func() error {
	closer, ok := cursor.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close
}

func safeSupply[T any](supplier func() (Cursor[T], error)) (cursor Cursor[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("stream supplier panicked: %v", r)
		}
	}()
	cursor, err = supplier()
	if err != nil {
		err = rserr.Callbackf("%v", err)
	}
	return cursor, err
}

// generatorPublisher adapts an initial-state supplier plus a
// state-to-cursor generator function. The initial state is fetched once
// per subscription, mirroring streamPublisher.
type generatorPublisher[S, T any] struct {
	stateSupplier func() S
	generator     func(S) (Cursor[T], error)
}

// FromGenerator creates a Publisher from a generator over some state S:
// stateSupplier produces the initial state (once per subscription), and
// generator maps that state to a Cursor. S is free to be any type,
// including one whose zero value carries meaning.
func FromGenerator[S, T any](stateSupplier func() S, generator func(S) (Cursor[T], error)) reactive.Publisher[T] {
	if stateSupplier == nil {
		panic(rserr.Illegalf("the state supplier cannot be nil"))
	}
	if generator == nil {
		panic(rserr.Illegalf("the generator function cannot be nil"))
	}
	return &generatorPublisher[S, T]{stateSupplier: stateSupplier, generator: generator}
}

func (p *generatorPublisher[S, T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	state, err := safeState(p.stateSupplier)
	if err != nil {
		failFast(subscriber, err)
		return
	}
	cursor, err := safeGenerate(p.generator, state)
	if err != nil {
		failFast(subscriber, err)
		return
	}
	if cursor == nil {
		failFast(subscriber, rserr.Violationf("the generator produced a nil cursor"))
		return
	}
	sub := newCursorSubscription[T](subscriber, nonNilYieldCursor[T]{inner: cursor}, closerOf(cursor))
	sub.start()
}

func safeState[S any](supplier func() S) (state S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("state supplier panicked: %v", r)
		}
	}()
	state = supplier()
	return state, nil
}

func safeGenerate[S, T any](generator func(S) (Cursor[T], error), state S) (cursor Cursor[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("generator panicked: %v", r)
		}
	}()
	cursor, err = generator(state)
	if err != nil {
		err = rserr.Callbackf("%v", err)
	}
	return cursor, err
}

// nonNilYieldCursor enforces that a generator's Cursor may not yield nil.
type nonNilYieldCursor[T any] struct {
	inner Cursor[T]
}

func (c nonNilYieldCursor[T]) Next() (T, bool, error) {
	v, ok, err := c.inner.Next()
	if err != nil || !ok {
		return v, ok, err
	}
	if isNilValue(v) {
		var zero T
		return zero, false, rserr.Violationf("the generator yielded a nil item")
	}
	return v, true, nil
}

// empty and failure are the two trivial cold publishers.

type emptyPublisher[T any] struct{}

// Empty creates a Publisher that completes immediately upon subscription
// without ever emitting an item.
func Empty[T any]() reactive.Publisher[T] {
	return emptyPublisher[T]{}
}

func (emptyPublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	subscriber.OnSubscribe(reactive.NoopSubscription{})
	subscriber.OnComplete()
}

type failurePublisher[T any] struct {
	err error
}

// FromFailure creates a Publisher that immediately signals OnError(err)
// upon subscription.
func FromFailure[T any](err error) reactive.Publisher[T] {
	if err == nil {
		panic(rserr.Illegalf("the failure cannot be nil"))
	}
	return failurePublisher[T]{err: err}
}

func (p failurePublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	subscriber.OnSubscribe(reactive.NoopSubscription{})
	subscriber.OnError(p.err)
}

func failFast[T any](subscriber reactive.Subscriber[T], err error) {
	subscriber.OnSubscribe(reactive.NoopSubscription{})
	subscriber.OnError(err)
}
