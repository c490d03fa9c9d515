package core

import (
	"context"
	"runtime/debug"
	"sync/atomic"
)

// Handle wraps one submitted Work together with its completion flag and
// result-or-failure slot. A handle is created by a join call, executed exactly
// once by whichever goroutine claims it (a pool worker or the joining caller),
// and never reused.
type Handle struct {
	work  Work
	index int

	claimed atomic.Bool
	done    chan struct{}

	// value and err are written once by the claiming goroutine before done is
	// closed, and read only after done is closed.
	value any
	err   error
}

func newHandle(work Work, index int) *Handle {
	return &Handle{
		work:  work,
		index: index,
		done:  make(chan struct{}),
	}
}

// Index returns the submission-order position of this handle in its group.
func (h *Handle) Index() int {
	return h.index
}

// Run executes the wrapped work exactly once, storing the result on normal
// completion and the failure cause otherwise. Panics are trapped and stored
// as a *PanicError. Run reports whether this call performed the execution;
// it is an idempotent no-op (returning false) when another goroutine already
// claimed the handle.
//
// Grouped executors reach a handle through PollNext, which already hands it
// to one goroutine only; flat executors rely on the claim directly, since the
// shared handle queue and a stealing caller may race for the same handle.
func (h *Handle) Run(ctx context.Context) bool {
	if !h.claimed.CompareAndSwap(false, true) {
		return false
	}

	defer close(h.done)
	defer func() {
		if rec := recover(); rec != nil {
			h.value = nil
			h.err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	h.value, h.err = h.work(ctx)
	return true
}

// abandon completes the handle with ErrAbandoned without running its work.
// Reports whether this call claimed the handle. Completing instead of leaving
// the handle pending keeps concurrent Await callers from blocking forever
// after ShutdownNow.
func (h *Handle) abandon() bool {
	if !h.claimed.CompareAndSwap(false, true) {
		return false
	}
	h.err = ErrAbandoned
	close(h.done)
	return true
}

// Await blocks until the handle transitions out of pending, then returns the
// stored result or failure. Context cancellation stops the wait for this
// caller only and returns ctx.Err(); the work itself is not cancelled.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	default:
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the handle completes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Completed reports whether the handle has transitioned out of pending.
func (h *Handle) Completed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Value returns the stored result. Valid only after Completed reports true.
func (h *Handle) Value() any {
	select {
	case <-h.done:
		return h.value
	default:
		return nil
	}
}

// Err returns the stored failure. Valid only after Completed reports true.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
