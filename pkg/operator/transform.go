package operator

import (
	"reflect"

	"github.com/flowkit/rstream/pkg/rserr"
	"github.com/flowkit/rstream/pkg/reactive"
)

// Transform is a one-to-one operator that maps each upstream item I to a
// downstream item O via fn. A panic or error from fn, or a nil result
// where O forbids nil, cancels upstream and delivers OnError downstream
// instead of the mapped item.
type Transform[I, O any] struct {
	upstream reactive.Publisher[I]
	fn       func(I) (O, error)
}

// NewTransform builds a Transform publisher. upstream and fn must be
// non-nil.
func NewTransform[I, O any](upstream reactive.Publisher[I], fn func(I) (O, error)) *Transform[I, O] {
	if upstream == nil {
		panic(rserr.Illegalf("the upstream publisher cannot be nil"))
	}
	if fn == nil {
		panic(rserr.Illegalf("the transform function cannot be nil"))
	}
	return &Transform[I, O]{upstream: upstream, fn: fn}
}

// Subscribe implements reactive.Publisher[O].
func (t *Transform[I, O]) Subscribe(subscriber reactive.Subscriber[O]) {
	if subscriber == nil {
		panic(rserr.Illegalf("the subscriber cannot be nil"))
	}
	proc := &transformProcessor[I, O]{fn: t.fn}
	proc.bind(subscriber)
	t.upstream.Subscribe(proc)
}

type transformProcessor[I, O any] struct {
	Base[I, O]
	fn func(I) (O, error)
}

func (p *transformProcessor[I, O]) OnNext(item I) {
	if p.Cancelled() {
		return
	}
	result, err := safeApply(p.fn, item)
	if err == nil && isNil(result) {
		err = rserr.Violationf("the function produced a null result for item %v", item)
	}
	if err != nil {
		p.Cancel()
		p.OnError(err)
		return
	}
	p.Downstream().OnNext(result)
}

// isNil reports whether v holds a nil pointer, interface, map, slice,
// channel, or function. Non-nillable kinds (ints, structs, ...) always
// report false, since they have no representable "null".
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

func safeApply[I, O any](fn func(I) (O, error), item I) (result O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rserr.Callbackf("transform function panicked: %v", r)
		}
	}()
	result, err = fn(item)
	if err != nil {
		err = rserr.Callbackf("%v", err)
	}
	return result, err
}
