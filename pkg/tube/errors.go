package tube

import "github.com/flowkit/rstream/pkg/rserr"

func illegalRequest(n int64) error {
	return rserr.Illegalf("the request amount must be strictly positive, got %d", n)
}

func overflow(msg string) error {
	return rserr.Overflowf(msg)
}

func overflowf(format string, args ...any) error {
	return rserr.Overflowf(format, args...)
}
