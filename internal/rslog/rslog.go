// Package rslog is the implementation-defined diagnostic channel: errors
// observed after a subscription has already gone terminal are never
// rethrown and never delivered to a subscriber, but they are not
// silently swallowed either, they land here.
//
// This package is never on the correctness path: nothing in rstream
// branches on whether logging succeeded.
package rslog

import "go.uber.org/zap"

// Logger is the minimal surface rstream components need. It is
// satisfied by *zap.Logger directly.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// Nop is a Logger that discards everything, returned by Named when a
// production logger cannot be built.
var Nop Logger = zap.NewNop()

// Named builds a new zap production logger scoped to name on each call,
// or returns Nop if the production logger could not be built.
func Named(name string) Logger {
	base, err := zap.NewProduction()
	if err != nil {
		return Nop
	}
	return base.Named(name)
}
