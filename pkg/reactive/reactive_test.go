package reactive_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowkit/rstream/pkg/reactive"
)

func TestNoopSubscriptionIgnoresEverything(t *testing.T) {
	var s reactive.Subscription = reactive.NoopSubscription{}
	assert.NotPanics(t, func() {
		s.Request(10)
		s.Cancel()
		s.Request(-1)
	})
}

func TestSubscriberFuncDefaults(t *testing.T) {
	var got []int
	sub := reactive.SubscriberFunc[int]{
		OnNextFunc: func(v int) { got = append(got, v) },
	}

	sub.OnSubscribe(reactive.NoopSubscription{})
	sub.OnNext(1)
	sub.OnNext(2)
	sub.OnComplete()

	assert.Equal(t, []int{1, 2}, got)
	assert.NotPanics(t, func() { sub.OnError(errors.New("boom")) })
}

func TestSubscriptionFuncForwards(t *testing.T) {
	var requested int64
	var cancelled bool
	s := reactive.SubscriptionFunc{
		RequestFunc: func(n int64) { requested += n },
		CancelFunc:  func() { cancelled = true },
	}

	s.Request(5)
	s.Request(3)
	s.Cancel()

	assert.Equal(t, int64(8), requested)
	assert.True(t, cancelled)
}
