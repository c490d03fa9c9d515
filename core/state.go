package core

import "sync/atomic"

// State is the lifecycle state of an executor. Transitions are monotonic:
// StateRunning -> StateShutDown -> StateTerminated, never backward.
type State int32

const (
	// StateRunning accepts new submissions.
	StateRunning State = iota

	// StateShutDown accepts no new submissions but drains published groups.
	StateShutDown

	// StateTerminated executes nothing further.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShutDown:
		return "shutdown"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// stateRegister is the single point of truth for lifecycle decisions.
// It is always read and advanced through atomic operations on one register,
// never through separately-read flags.
type stateRegister struct {
	v atomic.Int32
}

func (r *stateRegister) Load() State {
	return State(r.v.Load())
}

// Advance moves the register forward to target. It returns true if this call
// performed the transition, false if the register was already at or past
// target. Concurrent callers can never move the state backward.
func (r *stateRegister) Advance(target State) bool {
	for {
		cur := r.v.Load()
		if cur >= int32(target) {
			return false
		}
		if r.v.CompareAndSwap(cur, int32(target)) {
			return true
		}
	}
}
