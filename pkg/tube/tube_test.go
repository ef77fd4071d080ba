package tube_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
	"github.com/flowkit/rstream/pkg/tube"
)

type collector[T any] struct {
	items     []T
	err       error
	completed bool
	sub       reactive.Subscription
	requestOn int64
}

func newCollector[T any](requestOn int64) *collector[T] {
	return &collector[T]{requestOn: requestOn}
}

func (c *collector[T]) OnSubscribe(s reactive.Subscription) {
	c.sub = s
	if c.requestOn != 0 {
		s.Request(c.requestOn)
	}
}
func (c *collector[T]) OnNext(v T)        { c.items = append(c.items, v) }
func (c *collector[T]) OnError(err error) { c.err = err }
func (c *collector[T]) OnComplete()       { c.completed = true }

func TestBufferHoldsUpToCapacityThenOverflows(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 2}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)
	handle.Send(3)

	assert.Empty(t, c.items)
	assert.ErrorIs(t, c.err, rserr.Overflow)
}

func TestBufferDrainsOnceRequested(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 2}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)
	c.sub.Request(2)

	assert.Equal(t, []int{1, 2}, c.items)
}

func TestDropDiscardsWithoutDemand(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.DROP}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	c.sub.Request(1)
	handle.Send(2)

	assert.Equal(t, []int{2}, c.items)
	assert.NoError(t, c.err)
}

func TestLatestKeepsOnlyNewestWithinCapacity(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.LATEST, BufferSize: 2}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)
	handle.Send(3)
	c.sub.Request(10)

	assert.Equal(t, []int{2, 3}, c.items)
}

func TestErrorStrategyOverflowsOnFirstUnrequestedSend(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.ERROR}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)

	assert.ErrorIs(t, c.err, rserr.Overflow)
}

func TestErrorStrategyDeliversWithinDemand(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.ERROR}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](2)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)

	assert.Equal(t, []int{1, 2}, c.items)
	assert.NoError(t, c.err)
}

func TestUnboundedBuffersRegardlessOfDemand(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.UNBOUNDED}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	for i := 1; i <= 5; i++ {
		handle.Send(i)
	}
	c.sub.Request(5)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.items)
}

func TestIgnoreDeliversRegardlessOfDemand(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.IGNORE}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)

	assert.Equal(t, []int{1, 2}, c.items)
}

func TestStrictModeRejectsIgnore(t *testing.T) {
	assert.Panics(t, func() {
		tube.Create(tube.Configuration{Strategy: tube.IGNORE, StrictMode: true}, func(*tube.Handle[int]) {})
	})
}

func TestNonPositiveBufferSizeIsRejectedEagerly(t *testing.T) {
	assert.Panics(t, func() {
		tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 0}, func(*tube.Handle[int]) {})
	})
}

func TestCompleteDrainsBufferBeforeSignalling(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Send(1)
	handle.Send(2)
	handle.Complete()

	assert.Empty(t, c.items)
	assert.False(t, c.completed)

	c.sub.Request(2)

	assert.Equal(t, []int{1, 2}, c.items)
	assert.True(t, c.completed)
}

func TestFailIsImmediateEvenWithBufferedItems(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	boom := errors.New("boom")
	handle.Send(1)
	handle.Fail(boom)

	assert.ErrorIs(t, c.err, boom)
	assert.Empty(t, c.items)
}

func TestCancelOnCancellationFiresExactlyOnce(t *testing.T) {
	var handle *tube.Handle[int]
	cancelCount := 0
	terminationCount := 0
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
		h.CancelOnCancellation(func() error { cancelCount++; return nil })
		h.TerminationCallback(func() error { terminationCount++; return nil })
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	c.sub.Cancel()
	c.sub.Cancel()

	assert.Equal(t, 1, cancelCount)
	assert.Equal(t, 1, terminationCount)
	_ = handle
}

func TestTerminationCallbackFiresOnCompleteNotOnCancel(t *testing.T) {
	var handle *tube.Handle[int]
	terminationCount := 0
	cancelCount := 0
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
		h.CancelOnCancellation(func() error { cancelCount++; return nil })
		h.TerminationCallback(func() error { terminationCount++; return nil })
	})

	c := newCollector[int](1)
	pub.Subscribe(c)

	handle.Complete()

	assert.Equal(t, 1, terminationCount)
	assert.Equal(t, 0, cancelCount)
}

func TestCancelAfterCompleteDoesNotFireOnCancel(t *testing.T) {
	var handle *tube.Handle[int]
	cancelCount := 0
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
		h.CancelOnCancellation(func() error { cancelCount++; return nil })
	})

	c := newCollector[int](1)
	pub.Subscribe(c)

	handle.Complete()
	c.sub.Cancel()

	assert.True(t, c.completed)
	assert.Equal(t, 0, cancelCount)
}

func TestCancelAfterFailDoesNotFireOnCancel(t *testing.T) {
	var handle *tube.Handle[int]
	cancelCount := 0
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
		h.CancelOnCancellation(func() error { cancelCount++; return nil })
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	handle.Fail(errors.New("boom"))
	c.sub.Cancel()

	assert.Error(t, c.err)
	assert.Equal(t, 0, cancelCount)
}

func TestTerminationCallbackErrorDoesNotBlockTerminalDelivery(t *testing.T) {
	var handle *tube.Handle[int]
	boom := errors.New("release failed")
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
		h.TerminationCallback(func() error { return boom })
	})

	c := newCollector[int](1)
	pub.Subscribe(c)

	handle.Complete()

	assert.True(t, c.completed)
}

func TestRequestingZeroOrNegativeFailsAndCancels(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
	})

	var sawErr error
	pub.Subscribe(reactive.SubscriberFunc[int]{
		OnSubscribeFunc: func(s reactive.Subscription) { s.Request(0) },
		OnErrorFunc:     func(err error) { sawErr = err },
	})

	require.Error(t, sawErr)
	assert.ErrorIs(t, sawErr, rserr.IllegalArgument)
	assert.Equal(t, int64(0), handle.Requested())
}

func TestRequestedReflectsOutstandingDemand(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 4}, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](0)
	pub.Subscribe(c)

	c.sub.Request(5)
	assert.Equal(t, int64(5), handle.Requested())

	handle.Send(1)
	assert.Equal(t, int64(4), handle.Requested())
}

func TestCreateSimpleMatchesCreate(t *testing.T) {
	var handle *tube.Handle[int]
	pub := tube.CreateSimple(tube.BUFFER, 1, func(h *tube.Handle[int]) {
		handle = h
	})

	c := newCollector[int](1)
	pub.Subscribe(c)

	handle.Send(42)

	assert.Equal(t, []int{42}, c.items)
}
