package source

import "reflect"

// isNilValue reports whether v is a nil pointer, interface, map, slice,
// channel, or function, the same "is there a representable null here"
// check operator.isNil performs, duplicated rather than shared since
// sharing it would mean an import cycle or a third micro-package for one
// five-line function.
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
