// Package rsid mints per-subscription correlation identifiers used only
// for diagnostic logging. They are never part of the Reactive Streams
// protocol and never observable by a Subscriber.
package rsid

import "github.com/google/uuid"

// New returns a fresh correlation ID for a subscription.
func New() uuid.UUID {
	return uuid.New()
}
