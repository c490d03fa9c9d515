package core

import "time"

// WorkExecutionRecord captures one completed work execution.
type WorkExecutionRecord struct {
	Index      int
	Executor   string
	WorkerID   int
	Stolen     bool // executed by the joining caller, not a pool worker
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Failed     bool
	Panicked   bool
}

// ExecutorStats represents runtime observability state for an executor.
type ExecutorStats struct {
	Name    string
	Type    string
	Workers int

	// Queued counts scheduling units in the shared queue: groups for the
	// pool executor, individual handles for the flat executor.
	Queued int

	// PendingWork counts published handles not yet executed.
	PendingWork int

	Active     int
	State      State
	LastWorkAt time.Time
}
