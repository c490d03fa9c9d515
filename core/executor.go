package core

import (
	"context"
	"time"
)

// Executor is the join contract shared by the pool, direct, and flat
// configurations. All implementations guarantee:
//
//   - Every handle returned by a successful Join is completed by the time
//     Join returns (unless the caller's context was cancelled mid-wait).
//   - No work item ever executes twice.
//   - A join call is never slower than the caller executing the same items
//     sequentially alone, because the caller always contributes work during
//     the stealing phase before waiting.
type Executor interface {
	// Execute submits one work item fire-and-forget. The submitter never
	// awaits it; failures are best effort, reported only through the
	// configured handlers and metrics. Fails with ErrRejected if the
	// executor is not running.
	Execute(work Work) error

	// Join submits works as one group, lets the calling goroutine steal and
	// execute items from that group, then blocks until every handle is
	// completed. Failures route through FailFast: the first failure is
	// returned as an *ExecutionError, aborting the remaining wait loop.
	Join(ctx context.Context, works ...Work) ([]*Handle, error)

	// JoinWith is Join with a caller-supplied ErrorHandler.
	JoinWith(ctx context.Context, handler ErrorHandler, works ...Work) ([]*Handle, error)

	// Shutdown stops accepting submissions and drains published groups to
	// completion. Safe to call repeatedly and concurrently.
	Shutdown()

	// ShutdownNow stops accepting submissions and abandons queued,
	// unclaimed handles, returning their work items as never run.
	// Claimed handles run to completion; there is no mid-execution
	// cancellation.
	ShutdownNow() []Work

	// IsShutdown reports whether the executor has left the running state.
	IsShutdown() bool

	// IsTerminated reports whether the executor reached the terminated state.
	IsTerminated() bool

	// AwaitTermination blocks until all workers have exited or the timeout
	// elapses, reporting which occurred.
	AwaitTermination(timeout time.Duration) bool

	// Stats returns a point-in-time observability snapshot.
	Stats() ExecutorStats
}
