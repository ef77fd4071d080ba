package tube

// Handle is the producer-facing side of a Tube: the callback passed to
// Create receives one of these and drives the subscription by calling
// Send, Fail, and Complete from whatever imperative code is bridging
// into the reactive world.
type Handle[T any] struct {
	s *state[T]
}

// Send pushes an item downstream, subject to the Tube's backpressure
// strategy. A no-op once the subscription has cancelled or terminated.
func (h *Handle[T]) Send(item T) {
	h.s.send(item)
}

// Fail signals a terminal error immediately, skipping any buffered
// items. A no-op once the subscription has cancelled or terminated.
func (h *Handle[T]) Fail(err error) {
	h.s.fail(err)
}

// Complete signals successful completion. For BUFFER, LATEST, and
// UNBOUNDED, anything still buffered is drained first; the actual
// OnComplete may therefore be delayed until downstream catches up. A
// no-op once the subscription has cancelled or already terminated.
func (h *Handle[T]) Complete() {
	h.s.complete()
}

// CancelOnCancellation registers a callback invoked exactly once, the
// moment the downstream Subscriber cancels. It is never invoked for any
// other terminal outcome; see TerminationCallback for that. A non-nil
// return is a resource-release failure: since the cancelling Subscriber
// already stopped listening, it is combined with any TerminationCallback
// failure and logged rather than delivered anywhere.
func (h *Handle[T]) CancelOnCancellation(callback func() error) {
	h.s.onCancel = callback
}

// TerminationCallback registers a callback invoked exactly once on any
// terminal outcome at all (completion, failure, or cancellation), the
// hook for releasing whatever external resource this Tube is bridging. A
// non-nil return is logged alongside the terminal outcome rather than
// delivered to the Subscriber, which has already received its terminal
// signal (or, on cancellation, is no longer listening) by the time this
// runs.
func (h *Handle[T]) TerminationCallback(callback func() error) {
	h.s.onTermination = callback
}

// Requested reports the current outstanding demand. It is a snapshot:
// by the time the caller observes it, it may already be stale.
func (h *Handle[T]) Requested() int64 {
	return h.s.Requested()
}
