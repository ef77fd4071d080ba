package conformance_test

import (
	"testing"

	"github.com/flowkit/rstream/internal/conformance"
	"github.com/flowkit/rstream/pkg/operator"
	"github.com/flowkit/rstream/pkg/reactive"
	"github.com/flowkit/rstream/pkg/source"
	"github.com/flowkit/rstream/pkg/tube"
)

func TestFromItems(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return source.FromItems(1, 2, 3, 4, 5)
	})
}

func TestFromIterable(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[string] {
		return source.FromIterable([]string{"a", "b", "c"})
	})
}

func TestFromStream(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return source.FromStream(func() (source.Cursor[int], error) {
			return source.CursorFromSlice([]int{1, 2, 3}), nil
		})
	})
}

func TestFromGenerator(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return source.FromGenerator(
			func() int { return 0 },
			func(n int) (source.Cursor[int], error) {
				return source.CursorFromSlice([]int{n + 1, n + 2, n + 3}), nil
			},
		)
	})
}

func TestTransform(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[string] {
		return operator.NewTransform[int, string](source.FromItems(1, 2, 3), func(n int) (string, error) {
			return string(rune('a' + n)), nil
		})
	})
}

func TestSelect(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return operator.NewSelect[int](source.FromItems(1, 2, 3, 4, 5, 6), func(n int) (bool, error) {
			return n%2 == 0, nil
		})
	})
}

func TestTubeBuffer(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return tube.Create(tube.Configuration{Strategy: tube.BUFFER, BufferSize: 8}, func(h *tube.Handle[int]) {
			for i := 1; i <= 5; i++ {
				h.Send(i)
			}
			h.Complete()
		})
	})
}

func TestTubeUnbounded(t *testing.T) {
	conformance.Properties(t, func() reactive.Publisher[int] {
		return tube.Create(tube.Configuration{Strategy: tube.UNBOUNDED}, func(h *tube.Handle[int]) {
			for i := 1; i <= 5; i++ {
				h.Send(i)
			}
			h.Complete()
		})
	})
}
