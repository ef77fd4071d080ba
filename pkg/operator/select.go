package operator

import (
	"github.com/flowkit/rstream/pkg/rserr"
	"github.com/flowkit/rstream/pkg/reactive"
)

// Select is a one-to-one operator that forwards only the upstream items
// for which predicate returns true, discarding the rest without
// re-requesting upstream demand.
type Select[T any] struct {
	upstream  reactive.Publisher[T]
	predicate func(T) (bool, error)
}

// NewSelect builds a Select publisher. upstream and predicate must be
// non-nil.
func NewSelect[T any](upstream reactive.Publisher[T], predicate func(T) (bool, error)) *Select[T] {
	if upstream == nil {
		panic(rserr.Illegalf("the upstream publisher cannot be nil"))
	}
	if predicate == nil {
		panic(rserr.Illegalf("the predicate cannot be nil"))
	}
	return &Select[T]{upstream: upstream, predicate: predicate}
}

// Subscribe implements reactive.Publisher[T].
func (s *Select[T]) Subscribe(subscriber reactive.Subscriber[T]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	proc := &selectProcessor[T]{predicate: s.predicate}
	proc.bind(subscriber)
	s.upstream.Subscribe(proc)
}

type selectProcessor[T any] struct {
	Base[T, T]
	predicate func(T) (bool, error)
}

func (p *selectProcessor[T]) OnNext(item T) {
	if p.Cancelled() {
		return
	}
	keep, err := safeTest(p.predicate, item)
	if err != nil {
		p.Cancel()
		p.OnError(err)
		return
	}
	if keep {
		p.Downstream().OnNext(item)
	}
}

func safeTest[T any](predicate func(T) (bool, error), item T) (keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("predicate panicked: %v", r)
		}
	}()
	keep, err = predicate(item)
	if err != nil {
		err = rserr.Callbackf("%v", err)
	}
	return keep, err
}
