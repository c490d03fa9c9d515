package joinexec

import "github.com/joinexec/joinexec/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the joinexec package for most use cases.

// Work is the unit of work: a value-producing computation.
type Work = core.Work

// Handle is the per-item wrapper tracking pending/complete state and the
// result-or-failure slot.
type Handle = core.Handle

// ErrorHandler routes per-handle failures during a join's wait phase.
type ErrorHandler = core.ErrorHandler

// Executor is the join contract shared by all executor configurations.
type Executor = core.Executor

// ExecutorConfig holds configuration options shared by all executor kinds.
type ExecutorConfig = core.ExecutorConfig

// ExecutorStats represents runtime observability state for an executor.
type ExecutorStats = core.ExecutorStats

// State is the lifecycle state of an executor.
type State = core.State

// Lifecycle states.
const (
	StateRunning    State = core.StateRunning
	StateShutDown   State = core.StateShutDown
	StateTerminated State = core.StateTerminated
)

// Sentinel errors.
var (
	ErrNoWork    = core.ErrNoWork
	ErrRejected  = core.ErrRejected
	ErrAbandoned = core.ErrAbandoned
)

// Error handling helpers.
var (
	FailFast = core.FailFast
	Collect  = core.Collect
	CauseOf  = core.CauseOf
)

// Action lifts a side-effecting function into a Work with a nil result.
var Action = core.Action

// DefaultExecutorConfig returns a config with default handlers.
var DefaultExecutorConfig = core.DefaultExecutorConfig
