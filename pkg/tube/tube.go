package tube

import (
	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
)

type tubePublisher[T any] struct {
	config   Configuration
	consumer func(*Handle[T])
}

// Create builds a Publisher whose subscriptions are each driven by a
// fresh call to consumer, handed a Handle bound to that subscription.
// Configuration is validated once, eagerly, so a bad buffer size or an
// IGNORE strategy under StrictMode fails before any Subscriber is ever
// invoked rather than on first use.
func Create[T any](config Configuration, consumer func(*Handle[T])) reactive.Publisher[T] {
	if consumer == nil {
		panic(rserr.Illegalf("the tube consumer cannot be nil"))
	}
	if err := config.validate(); err != nil {
		panic(err)
	}
	return tubePublisher[T]{config: config, consumer: consumer}
}

// CreateSimple is the deprecated three-argument convenience form carried
// over from the original library: a strategy and buffer size instead of
// a Configuration.
//
// Deprecated: use Create with a Configuration.
func CreateSimple[T any](strategy Strategy, bufferSize int, consumer func(*Handle[T])) reactive.Publisher[T] {
	return Create(Configuration{Strategy: strategy, BufferSize: bufferSize}, consumer)
}

func (p tubePublisher[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	s := newState[T](subscriber, p.config)
	handle := &Handle[T]{s: s}

	// OnSubscribe must happen before any other signal, so it goes first
	// even though that means a downstream Cancel issued synchronously
	// from inside OnSubscribe can race a CancelOnCancellation
	// registration the consumer hasn't made yet, in that narrow case
	// the callback is simply never invoked, the same way registering an
	// event listener after the event fired misses it anywhere else.
	subscriber.OnSubscribe(s)
	safeConsume(p.consumer, handle)
}

func safeConsume[T any](consumer func(*Handle[T]), handle *Handle[T]) {
	defer func() {
		if r := recover(); r != nil {
			handle.s.terminate(rserr.Callbackf("tube consumer panicked: %v", r))
		}
	}()
	consumer(handle)
}
