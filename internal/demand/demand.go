// Package demand implements the shared non-blocking drain-loop primitive
// used by every in-memory source and by Tube: a saturating demand
// counter plus a single-flag work-in-progress guard, so concurrent
// Request/Cancel calls never cause the drain loop to run on more than
// one goroutine at a time, and never grow the call stack by re-entering
// Request from inside OnNext.
package demand

import (
	"math"

	"go.uber.org/atomic"
)

// Infinite is the saturating sentinel for "effectively unbounded" demand.
const Infinite = math.MaxInt64

// Counter is a saturating, concurrency-safe demand counter plus the
// draining guard that serializes the drain loop per subscription.
type Counter struct {
	outstanding atomic.Int64
	draining    atomic.Bool
	cancelled   atomic.Bool
}

// Add adds n to the outstanding demand, saturating at Infinite. It never
// goes negative; callers are expected to have already rejected n <= 0.
func (c *Counter) Add(n int64) {
	for {
		cur := c.outstanding.Load()
		if cur >= Infinite {
			return
		}
		next := cur + n
		if next < cur || next > Infinite { // overflow or saturation
			next = Infinite
		}
		if c.outstanding.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Take decrements the outstanding demand by one if any is available,
// reporting whether it succeeded.
func (c *Counter) Take() bool {
	for {
		cur := c.outstanding.Load()
		if cur <= 0 {
			return false
		}
		if cur >= Infinite {
			// Infinite demand never runs out; no need to decrement it,
			// which also means it never needs replenishing.
			return true
		}
		if c.outstanding.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Outstanding returns the current outstanding demand snapshot, per the
// Tube.requested() contract: it may be stale the instant it returns.
func (c *Counter) Outstanding() int64 {
	return c.outstanding.Load()
}

// Cancel marks the counter cancelled. Idempotent.
func (c *Counter) Cancel() {
	c.cancelled.Store(true)
}

// TryCancel marks the counter cancelled and reports whether this call was
// the one that did it, for callers that must fire a once-only side effect
// (an onCancel callback) exactly when cancellation first takes effect.
func (c *Counter) TryCancel() bool {
	return c.cancelled.CompareAndSwap(false, true)
}

// Cancelled reports whether Cancel has been called.
func (c *Counter) Cancelled() bool {
	return c.cancelled.Load()
}

// TryEnterDrain attempts to become the sole goroutine running the drain
// loop. If another goroutine is already draining, it returns false and
// the caller must trust that goroutine to observe the state change it
// just made (the CAS in Add/Cancel happens-before that goroutine's next
// loop check).
func (c *Counter) TryEnterDrain() bool {
	return c.draining.CompareAndSwap(false, true)
}

// ExitDrain releases the draining flag. Callers must re-check whether
// there's pending work (new demand, or a cancel) immediately after
// calling this and before returning, re-entering the loop via
// TryEnterDrain if so, otherwise a Request/Cancel that arrived in the
// narrow window between the loop's last check and ExitDrain would be
// missed.
func (c *Counter) ExitDrain() {
	c.draining.Store(false)
}
