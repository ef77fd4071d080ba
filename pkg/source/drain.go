package source

import (
	"errors"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/flowkit/rstream/internal/demand"
	"github.com/flowkit/rstream/internal/rslog"
	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
)

var log = rslog.Named("source")

// cursorSubscription drives the drain loop contract over a Cursor[T]: on
// each Request(n), add n to outstanding demand (rejecting n <= 0), then
// drain while cancelled is false, demand > 0, and the cursor has more
// items. Only one goroutine ever runs the loop body at a time thanks to
// demand.Counter's draining guard.
type cursorSubscription[T any] struct {
	subscriber reactive.Subscriber[T]
	cursor     Cursor[T]
	counter    demand.Counter
	signalled  atomic.Bool // true once a terminal signal has been delivered
	closer     func() error
}

func newCursorSubscription[T any](subscriber reactive.Subscriber[T], cursor Cursor[T], closer func() error) *cursorSubscription[T] {
	return &cursorSubscription[T]{subscriber: subscriber, cursor: cursor, closer: closer}
}

func (s *cursorSubscription[T]) start() {
	s.subscriber.OnSubscribe(s)
}

func (s *cursorSubscription[T]) Request(n int64) {
	if n <= 0 {
		s.terminate(rserr.Illegalf("the request amount must be strictly positive, got %d", n))
		s.counter.Cancel()
		return
	}
	if s.counter.Cancelled() || s.signalled.Load() {
		return
	}
	s.counter.Add(n)
	s.drain()
}

func (s *cursorSubscription[T]) Cancel() {
	s.counter.Cancel()
	s.closeCursor(nil)
}

func (s *cursorSubscription[T]) drain() {
	if !s.counter.TryEnterDrain() {
		return
	}
	for {
		for !s.counter.Cancelled() && !s.signalled.Load() && s.counter.Take() {
			item, ok, err := s.cursor.Next()
			if err != nil {
				if !errors.Is(err, rserr.ProtocolViolation) {
					err = rserr.Callbackf("%v", err)
				}
				s.terminate(err)
				break
			}
			if !ok {
				s.terminate(nil)
				break
			}
			s.subscriber.OnNext(item)
		}
		s.counter.ExitDrain()
		// Re-check: a Request or Cancel may have arrived in the gap
		// between the loop condition failing and ExitDrain above.
		if s.counter.Cancelled() || s.signalled.Load() || s.counter.Outstanding() <= 0 {
			return
		}
		if !s.counter.TryEnterDrain() {
			return
		}
	}
}

// terminate delivers OnComplete (err == nil) or OnError(err) exactly
// once, then releases the cursor.
func (s *cursorSubscription[T]) terminate(err error) {
	if !s.signalled.CompareAndSwap(false, true) {
		return
	}
	if err != nil {
		s.subscriber.OnError(err)
	} else {
		s.subscriber.OnComplete()
	}
	s.closeCursor(err)
}

// closeCursor releases the cursor's resources, if it has any. A close
// failure can no longer be delivered to the subscriber: the terminal
// signal already went out, so it is combined with that terminal cause
// (if any) and logged instead.
func (s *cursorSubscription[T]) closeCursor(terminalCause error) {
	if s.closer == nil {
		return
	}
	if err := s.closer(); err != nil {
		log.Warn("cursor close failed after termination", zap.Error(multierr.Append(terminalCause, err)))
	}
	s.closer = nil
}
