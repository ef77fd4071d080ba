// Package tube implements the hot/cold bridge between imperative
// producer code and the reactive world: a Tube lets arbitrary code push
// items, failures, and completion into a Publisher, choosing one of six
// backpressure strategies for what happens when downstream demand can't
// keep up.
package tube

import "github.com/flowkit/rstream/pkg/rserr"

// Strategy selects what a Tube does with an item sent while there is no
// outstanding downstream demand.
type Strategy int

const (
	// BUFFER queues the item in a bounded ring buffer, failing the
	// subscription with an Overflow error once the buffer is full.
	BUFFER Strategy = iota
	// DROP silently discards the item.
	DROP
	// LATEST keeps only the most recently sent items, evicting the
	// oldest buffered item to make room for a new one once full.
	LATEST
	// ERROR fails the subscription with an Overflow error as soon as an
	// item arrives with no outstanding demand; it never buffers.
	ERROR
	// UNBOUNDED queues every item regardless of demand, subject only to
	// an internal sanity ceiling meant to catch runaway producers.
	UNBOUNDED
	// IGNORE delivers every item immediately regardless of demand,
	// violating the Reactive Streams backpressure contract outright. It
	// exists only for sinks already known to never apply backpressure.
	IGNORE
)

// MaxUnboundedBuffer is the sanity ceiling on UNBOUNDED's internal queue.
// A producer that outruns a subscriber by this many items is almost
// certainly misconfigured rather than legitimately unbounded.
const MaxUnboundedBuffer = 1 << 20

// Configuration controls how a Tube is built: its backpressure strategy,
// the capacity of that strategy's buffer (BUFFER and LATEST only), and
// whether IGNORE is permitted at all.
type Configuration struct {
	Strategy   Strategy
	BufferSize int
	// StrictMode, when true, rejects IGNORE at construction time since
	// it can't be made to honor Reactive Streams rule 2.7 no matter how
	// it's configured. Defaults to false: the original library always
	// permitted it, so StrictMode is opt-in rather than the default.
	StrictMode bool
}

// Option sets one field of the Configuration it is called on. Create
// takes a finished Configuration value and does not accept Options.
type Option func(*Configuration)

// WithBackpressure sets the strategy.
func WithBackpressure(strategy Strategy) Option {
	return func(c *Configuration) { c.Strategy = strategy }
}

// WithBufferSize sets the buffer capacity, meaningful only for BUFFER and
// LATEST.
func WithBufferSize(size int) Option {
	return func(c *Configuration) { c.BufferSize = size }
}

// WithStrictMode toggles strict mode; see Configuration.StrictMode.
func WithStrictMode(strict bool) Option {
	return func(c *Configuration) { c.StrictMode = strict }
}

func (c Configuration) hasBacklog() bool {
	return c.Strategy == BUFFER || c.Strategy == LATEST || c.Strategy == UNBOUNDED
}

func (c Configuration) validate() error {
	switch c.Strategy {
	case BUFFER, DROP, LATEST, ERROR, UNBOUNDED, IGNORE:
	default:
		return rserr.Illegalf("unknown backpressure strategy %d", c.Strategy)
	}
	if (c.Strategy == BUFFER || c.Strategy == LATEST) && c.BufferSize <= 0 {
		return rserr.Illegalf("buffer size must be strictly positive for strategy %d, got %d", c.Strategy, c.BufferSize)
	}
	if c.Strategy == IGNORE && c.StrictMode {
		return rserr.Illegalf("strategy IGNORE is not permitted in strict mode")
	}
	return nil
}
