package core

import (
	"context"
)

// Work is the unit of work: a value-producing computation executed by an
// executor. A Work that only performs a side effect can be lifted with Action.
type Work func(ctx context.Context) (any, error)

// Action lifts a side-effecting function into a Work with a nil result.
func Action(fn func(ctx context.Context) error) Work {
	return func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}
}

// =============================================================================
// ErrorHandler: Per-handle failure routing for Join
// =============================================================================

// ErrorHandler is invoked by Join for every handle whose execution failed.
// index is the submission-order position of the failed item, cause the stored
// failure. A non-nil return aborts the remaining wait loop and becomes the
// error returned by Join; returning nil continues with the next handle.
//
// Implementations may be called from the joining goroutine only, so they do
// not need to be thread-safe across concurrent Join calls on distinct
// goroutines.
type ErrorHandler func(index int, cause error) error

// FailFast is the default ErrorHandler: it wraps the first failure in an
// ExecutionError and aborts the remaining wait loop.
func FailFast(index int, cause error) error {
	return &ExecutionError{Index: index, Cause: cause}
}

// Collect returns an ErrorHandler that records every failure into dst and
// never aborts the wait loop. Use it when all handles should be inspected
// even if some fail.
func Collect(dst *[]error) ErrorHandler {
	return func(index int, cause error) error {
		*dst = append(*dst, &ExecutionError{Index: index, Cause: cause})
		return nil
	}
}
