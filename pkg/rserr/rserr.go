// Package rserr defines the error-kind taxonomy shared by every package in
// rstream. Every error rstream raises itself wraps exactly one of the
// sentinels below, so callers can classify it with errors.Is regardless
// of which component raised it. Errors handed in by the caller
// (FromFailure, Handle.Fail, a rejected Future) and errors forwarded from
// an upstream publisher are delivered unchanged, without a sentinel.
package rserr

import (
	"errors"
	"fmt"
)

var (
	// IllegalArgument marks a null/invalid argument to a factory or
	// operator constructor, or a non-positive Subscription.Request(n).
	IllegalArgument = errors.New("illegal argument")

	// ProtocolViolation marks a null item, null transform result, or
	// null generator state/yield observed where the protocol forbids it.
	ProtocolViolation = errors.New("protocol violation")

	// Overflow marks a Tube BUFFER or ERROR strategy exceeding capacity.
	Overflow = errors.New("overflow")

	// UserCallback marks a panic/error raised by caller-supplied code:
	// a supplier, generator, transform function, or predicate.
	UserCallback = errors.New("user callback failed")

	// UpstreamFailure marks an error propagated as-is from an upstream
	// publisher, with no reinterpretation.
	UpstreamFailure = errors.New("upstream failure")
)

// Illegalf wraps IllegalArgument with a formatted message.
func Illegalf(format string, args ...any) error {
	return wrapf(IllegalArgument, format, args...)
}

// Violationf wraps ProtocolViolation with a formatted message.
func Violationf(format string, args ...any) error {
	return wrapf(ProtocolViolation, format, args...)
}

// Overflowf wraps Overflow with a formatted message.
func Overflowf(format string, args ...any) error {
	return wrapf(Overflow, format, args...)
}

// Callbackf wraps UserCallback with a formatted message.
func Callbackf(format string, args ...any) error {
	return wrapf(UserCallback, format, args...)
}

// Upstream wraps UpstreamFailure around an error observed from upstream,
// preserving it for errors.Is/As via %w while tagging it with the kind.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", UpstreamFailure, err)
}

func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
