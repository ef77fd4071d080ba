package tube

import (
	"container/list"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/flowkit/rstream/internal/demand"
	"github.com/flowkit/rstream/internal/ringbuffer"
	"github.com/flowkit/rstream/internal/rslog"
	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rsid"
)

var log = rslog.Named("tube")

// terminalSignal records a requested terminal outcome not yet delivered:
// err == nil means OnComplete. waitForDrain is true only for complete(),
// which must flush whatever is already buffered before signalling;
// fail() and overflow are immediate and skip the wait.
type terminalSignal struct {
	err          error
	waitForDrain bool
}

// state is the per-subscription machinery shared by the Handle the
// producer holds and the Subscription the downstream Subscriber holds.
// BUFFER, LATEST, and UNBOUNDED route every item through a backlog plus
// the shared non-blocking drain loop; DROP, ERROR, and IGNORE have no
// backlog and deliver directly under a plain mutex, since the only
// contention they ever see is between concurrent Send calls, never
// between Send and a Request-driven drain.
type state[T any] struct {
	id         string
	subscriber reactive.Subscriber[T]
	strategy   Strategy

	counter   demand.Counter
	signalled atomic.Bool
	closing   atomic.Bool

	bufMu             sync.Mutex
	ring              *ringbuffer.Ring[T]
	unbounded         *list.List
	terminalRequested atomic.Bool
	pendingTerminal   atomic.Pointer[terminalSignal]

	directMu sync.Mutex

	terminationFired atomic.Bool
	onTermination    func() error
	onCancel         func() error
}

func newState[T any](subscriber reactive.Subscriber[T], config Configuration) *state[T] {
	s := &state[T]{
		id:         rsid.New().String(),
		subscriber: subscriber,
		strategy:   config.Strategy,
	}
	switch config.Strategy {
	case BUFFER, LATEST:
		s.ring = ringbuffer.New[T](config.BufferSize)
	case UNBOUNDED:
		s.unbounded = list.New()
	}
	return s
}

func (s *state[T]) hasBacklog() bool {
	return s.strategy == BUFFER || s.strategy == LATEST || s.strategy == UNBOUNDED
}

// --- reactive.Subscription ---

func (s *state[T]) Request(n int64) {
	if n <= 0 {
		s.terminate(illegalRequest(n))
		s.counter.Cancel()
		return
	}
	if s.counter.Cancelled() || s.signalled.Load() {
		return
	}
	s.counter.Add(n)
	if s.hasBacklog() {
		s.runDrain()
	}
}

// Cancel is a no-op once a terminal signal has already been delivered:
// OnComplete/OnError and cancellation are distinct, absorbing end states,
// and a downstream Subscriber is free to call Cancel after either one as
// a matter of course, which must never retroactively fire onCancel.
func (s *state[T]) Cancel() {
	if s.signalled.Load() {
		s.counter.Cancel()
		return
	}
	if !s.counter.TryCancel() {
		return
	}
	if s.signalled.Load() {
		return
	}
	s.clearBacklog()
	var releaseErr error
	if s.onCancel != nil {
		releaseErr = s.onCancel()
	}
	releaseErr = multierr.Append(releaseErr, s.fireTermination())
	if releaseErr != nil {
		log.Debug("tube resource release failed on cancel", zap.String("tube", s.id), zap.Error(releaseErr))
	}
}

func (s *state[T]) Requested() int64 {
	return s.counter.Outstanding()
}

// --- producer-facing operations ---

func (s *state[T]) send(item T) {
	if s.counter.Cancelled() || s.signalled.Load() || s.closing.Load() {
		return
	}
	switch s.strategy {
	case IGNORE:
		s.directMu.Lock()
		if !s.signalled.Load() && !s.counter.Cancelled() {
			s.subscriber.OnNext(item)
		}
		s.directMu.Unlock()
	case DROP:
		s.directMu.Lock()
		if !s.signalled.Load() && !s.counter.Cancelled() && s.counter.Take() {
			s.subscriber.OnNext(item)
		}
		s.directMu.Unlock()
	case ERROR:
		s.directMu.Lock()
		took := !s.signalled.Load() && !s.counter.Cancelled() && s.counter.Take()
		if took {
			s.subscriber.OnNext(item)
		}
		s.directMu.Unlock()
		if !took && !s.counter.Cancelled() && !s.signalled.Load() {
			err := overflow("no outstanding demand for backpressure strategy ERROR")
			logOverflow(s.id, err)
			s.terminate(err)
		}
	case BUFFER:
		s.bufMu.Lock()
		ok := s.ring.TryPush(item)
		s.bufMu.Unlock()
		if !ok {
			err := overflowf("buffer capacity %d exceeded", s.ring.Cap())
			logOverflow(s.id, err)
			s.terminate(err)
			return
		}
		s.runDrain()
	case LATEST:
		s.bufMu.Lock()
		s.ring.PushEvictingOldest(item)
		s.bufMu.Unlock()
		s.runDrain()
	case UNBOUNDED:
		s.bufMu.Lock()
		full := s.unbounded.Len() >= MaxUnboundedBuffer
		if !full {
			s.unbounded.PushBack(item)
		}
		s.bufMu.Unlock()
		if full {
			err := overflowf("unbounded buffer exceeded sanity ceiling of %d", MaxUnboundedBuffer)
			logOverflow(s.id, err)
			s.terminate(err)
			return
		}
		s.runDrain()
	}
}

func (s *state[T]) fail(err error) {
	if err == nil || s.counter.Cancelled() || s.signalled.Load() || s.closing.Load() {
		return
	}
	s.terminate(err)
}

func (s *state[T]) complete() {
	if s.counter.Cancelled() || s.signalled.Load() {
		return
	}
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	if !s.hasBacklog() {
		s.directMu.Lock()
		s.deliverTerminal(nil)
		s.directMu.Unlock()
		return
	}
	if s.terminalRequested.CompareAndSwap(false, true) {
		s.pendingTerminal.Store(&terminalSignal{waitForDrain: true})
	}
	s.runDrain()
}

// terminate requests an immediate terminal outcome (fail or overflow),
// which skips waiting for the backlog to drain.
func (s *state[T]) terminate(err error) {
	if s.hasBacklog() {
		if s.terminalRequested.CompareAndSwap(false, true) {
			s.pendingTerminal.Store(&terminalSignal{err: err})
		}
		s.runDrain()
		return
	}
	s.directMu.Lock()
	s.deliverTerminal(err)
	s.directMu.Unlock()
}

// deliverTerminal is the single choke point that actually calls
// OnError/OnComplete, guarded by signalled so it only ever fires once,
// and skipped entirely once the downstream has cancelled.
func (s *state[T]) deliverTerminal(err error) {
	if s.counter.Cancelled() {
		return
	}
	if !s.signalled.CompareAndSwap(false, true) {
		return
	}
	if err != nil {
		s.subscriber.OnError(err)
	} else {
		s.subscriber.OnComplete()
	}
	s.clearBacklog()
	if releaseErr := s.fireTermination(); releaseErr != nil {
		log.Debug("tube resource release failed on terminate", zap.String("tube", s.id), zap.Error(multierr.Append(err, releaseErr)))
	}
}

// fireTermination invokes onTermination exactly once and returns its
// error, if any, for the caller to combine with whatever else is being
// reported through internal/rslog.
func (s *state[T]) fireTermination() error {
	if s.terminationFired.CompareAndSwap(false, true) && s.onTermination != nil {
		return s.onTermination()
	}
	return nil
}

// --- backlog-driven drain loop, for BUFFER/LATEST/UNBOUNDED only ---

func (s *state[T]) runDrain() {
	if !s.counter.TryEnterDrain() {
		return
	}
	for {
		for !s.counter.Cancelled() && !s.signalled.Load() {
			if sig := s.pendingTerminal.Load(); sig != nil && (!sig.waitForDrain || s.backlogEmpty()) {
				s.deliverTerminal(sig.err)
				break
			}
			if s.backlogEmpty() {
				break
			}
			if !s.counter.Take() {
				break
			}
			item, ok := s.popBacklog()
			if !ok {
				s.counter.Add(1)
				break
			}
			s.subscriber.OnNext(item)
		}
		s.counter.ExitDrain()
		if s.counter.Cancelled() || s.signalled.Load() {
			return
		}
		sig := s.pendingTerminal.Load()
		readyForTerminal := sig != nil && (!sig.waitForDrain || s.backlogEmpty())
		moreToDeliver := s.counter.Outstanding() > 0 && !s.backlogEmpty()
		if !readyForTerminal && !moreToDeliver {
			return
		}
		if !s.counter.TryEnterDrain() {
			return
		}
	}
}

func (s *state[T]) popBacklog() (T, bool) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	switch s.strategy {
	case BUFFER, LATEST:
		return s.ring.Pop()
	case UNBOUNDED:
		front := s.unbounded.Front()
		if front == nil {
			var zero T
			return zero, false
		}
		s.unbounded.Remove(front)
		return front.Value.(T), true
	default:
		var zero T
		return zero, false
	}
}

func (s *state[T]) backlogEmpty() bool {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	switch s.strategy {
	case BUFFER, LATEST:
		return s.ring.Empty()
	case UNBOUNDED:
		return s.unbounded.Len() == 0
	default:
		return true
	}
}

func (s *state[T]) clearBacklog() {
	if !s.hasBacklog() {
		return
	}
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	switch s.strategy {
	case BUFFER, LATEST:
		for {
			if _, ok := s.ring.Pop(); !ok {
				break
			}
		}
	case UNBOUNDED:
		s.unbounded.Init()
	}
}

func logOverflow(id string, err error) {
	log.Debug("tube overflow", zap.String("tube", id), zap.Error(err))
}
