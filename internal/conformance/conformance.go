// Package conformance runs the Reactive Streams TCK's property checks
// (1.x publisher, 2.x subscriber, 3.x subscription rules) directly
// against any cold, repeatable Publisher[T] factory, entirely in-process
// via go test rather than over a wire protocol.
package conformance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/rserr"
)

// recorder is a Subscriber[T] that records every call it receives, in
// order, so properties can assert on the exact signal sequence rather
// than just the final outcome.
type recorder[T any] struct {
	events     []string
	items      []T
	err        error
	completed  bool
	subscribed bool
}

func (r *recorder[T]) OnSubscribe(reactive.Subscription) {
	r.events = append(r.events, "OnSubscribe")
	r.subscribed = true
}
func (r *recorder[T]) OnNext(v T) {
	r.events = append(r.events, "OnNext")
	r.items = append(r.items, v)
}
func (r *recorder[T]) OnError(err error) {
	r.events = append(r.events, "OnError")
	r.err = err
}
func (r *recorder[T]) OnComplete() {
	r.events = append(r.events, "OnComplete")
	r.completed = true
}

// Properties runs P1–P6 against factory, which must return a fresh,
// independent Publisher[T] each time it's called (a cold publisher whose
// Subscription answers Request(0) with an IllegalArgument error).
// source.Empty and source.FromFailure do not qualify: they hand out a
// NoopSubscription and terminate inside Subscribe, so P3 cannot pass.
func Properties[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	t.Run("P1_OnSubscribeAlwaysFirst", func(t *testing.T) { p1OnSubscribeAlwaysFirst(t, factory) })
	t.Run("P2_AtMostOneTerminalSignal", func(t *testing.T) { p2AtMostOneTerminalSignal(t, factory) })
	t.Run("P3_IllegalRequestIsIllegalArgumentAndTerminal", func(t *testing.T) { p3IllegalRequestIsTerminal(t, factory) })
	t.Run("P4_DeliveredNeverExceedsRequested", func(t *testing.T) { p4DeliveredNeverExceedsRequested(t, factory) })
	t.Run("P5_CancelIsIdempotent", func(t *testing.T) { p5CancelIsIdempotent(t, factory) })
	t.Run("P6_ResubscribeIsIndependent", func(t *testing.T) { p6ResubscribeIsIndependent(t, factory) })
}

func p1OnSubscribeAlwaysFirst[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	r := &recorder[T]{}
	factory().Subscribe(wrapRequestAll(r))
	require.NotEmpty(t, r.events)
	assert.Equal(t, "OnSubscribe", r.events[0])
}

func p2AtMostOneTerminalSignal[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	r := &recorder[T]{}
	factory().Subscribe(wrapRequestAll(r))
	terminalCount := 0
	for _, e := range r.events {
		if e == "OnComplete" || e == "OnError" {
			terminalCount++
		}
	}
	assert.LessOrEqual(t, terminalCount, 1)
	if r.completed {
		assert.NoError(t, r.err)
	}
}

func p3IllegalRequestIsTerminal[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	var sawErr error
	var items []T
	factory().Subscribe(reactive.SubscriberFunc[T]{
		OnSubscribeFunc: func(s reactive.Subscription) { s.Request(0) },
		OnNextFunc:      func(v T) { items = append(items, v) },
		OnErrorFunc:     func(err error) { sawErr = err },
	})
	require.Error(t, sawErr)
	assert.True(t, errors.Is(sawErr, rserr.IllegalArgument))
	assert.Empty(t, items)
}

func p4DeliveredNeverExceedsRequested[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	const limit = int64(3)
	var items []T
	factory().Subscribe(reactive.SubscriberFunc[T]{
		OnSubscribeFunc: func(s reactive.Subscription) { s.Request(limit) },
		OnNextFunc:      func(v T) { items = append(items, v) },
	})
	assert.LessOrEqual(t, int64(len(items)), limit)
}

func p5CancelIsIdempotent[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	var sub reactive.Subscription
	factory().Subscribe(reactive.SubscriberFunc[T]{
		OnSubscribeFunc: func(s reactive.Subscription) { sub = s },
	})
	require.NotNil(t, sub)
	assert.NotPanics(t, func() {
		sub.Cancel()
		sub.Cancel()
	})
}

func p6ResubscribeIsIndependent[T any](t *testing.T, factory func() reactive.Publisher[T]) {
	pub := factory()
	first := &recorder[T]{}
	pub.Subscribe(wrapRequestAll(first))
	second := &recorder[T]{}
	pub.Subscribe(wrapRequestAll(second))
	assert.True(t, first.subscribed)
	assert.True(t, second.subscribed)
}

// wrapRequestAll requests effectively unbounded demand up front, so a
// cold, finite publisher runs to completion in one synchronous call.
func wrapRequestAll[T any](r *recorder[T]) reactive.Subscriber[T] {
	return reactive.SubscriberFunc[T]{
		OnSubscribeFunc: func(s reactive.Subscription) {
			r.OnSubscribe(s)
			s.Request(1 << 30)
		},
		OnNextFunc:     r.OnNext,
		OnErrorFunc:    r.OnError,
		OnCompleteFunc: r.OnComplete,
	}
}
