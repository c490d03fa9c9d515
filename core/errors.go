package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWork is returned by Join when the submission is malformed:
	// an empty item list or a nil item.
	ErrNoWork = errors.New("joinexec: no work submitted")

	// ErrRejected is returned by Execute and Join when the executor is no
	// longer running.
	ErrRejected = errors.New("joinexec: executor is not running")

	// ErrAbandoned is stored on handles that were discarded by ShutdownNow
	// before any goroutine claimed them. Their Work never ran.
	ErrAbandoned = errors.New("joinexec: work abandoned by ShutdownNow")
)

// ExecutionError wraps the failure of a single work item together with its
// submission-order index, so callers can attribute errors to specific items.
type ExecutionError struct {
	Index int
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("joinexec: work %d failed: %v", e.Index, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IsExecutionError reports whether err (or any error in its chain) is a
// *ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// CauseOf unwraps the first *ExecutionError in err's chain and returns its
// underlying cause. If err is not an ExecutionError, it is returned as-is.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Cause
	}
	return err
}

// PanicError is stored on a handle whose Work panicked. Execution sites trap
// every panic so neither worker goroutines nor joining callers are killed by
// a misbehaving work item.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("joinexec: work panicked: %v", e.Value)
}

// IsPanicError reports whether err (or any error in its chain) is a
// *PanicError.
func IsPanicError(err error) bool {
	if err == nil {
		return false
	}
	var pe *PanicError
	return errors.As(err, &pe)
}
