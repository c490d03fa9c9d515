package joinexec

import (
	"context"
	"time"

	"github.com/joinexec/joinexec/core"
)

// Pool is the grouped worker-pool configuration: a fixed set of persistent
// worker goroutines draining submitted groups in breadth-first rotation.
// Each Pool is an independently constructed value with its own lifecycle;
// there is no process-wide instance.
type Pool struct {
	id   string
	exec *core.PoolExecutor
}

// New creates a running Pool with the given id and worker count.
func New(id string, workers int) *Pool {
	return NewWithConfig(id, workers, nil)
}

// NewWithConfig creates a running Pool with custom handlers, metrics, or
// logging. A nil config uses defaults.
func NewWithConfig(id string, workers int, config *core.ExecutorConfig) *Pool {
	cfg := &core.ExecutorConfig{}
	if config != nil {
		*cfg = *config
	}
	if cfg.Name == "" {
		cfg.Name = id
	}
	return &Pool{
		id:   id,
		exec: core.NewPoolExecutor(workers, cfg),
	}
}

// NewDirect creates the zero-worker configuration: the calling goroutine
// executes 100% of every join on its own, and Execute runs synchronously.
func NewDirect(id string) *core.DirectExecutor {
	return core.NewDirectExecutor(&core.ExecutorConfig{Name: id})
}

// NewFlat creates the non-grouped configuration: one shared first-come-
// first-served queue of individual handles, without breadth-first fairness.
func NewFlat(id string, workers int) *core.FlatExecutor {
	return core.NewFlatExecutor(workers, &core.ExecutorConfig{Name: id})
}

// ID returns the pool's identifier.
func (p *Pool) ID() string {
	return p.id
}

// WorkerCount returns the fixed number of pool workers.
func (p *Pool) WorkerCount() int {
	return p.exec.WorkerCount()
}

// Execute submits one work item fire-and-forget. Fails with ErrRejected if
// the pool is not running.
func (p *Pool) Execute(work Work) error {
	return p.exec.Execute(work)
}

// Join submits works as one group, steals from it on the calling goroutine,
// and blocks until every handle is completed. The first failure is returned
// as a *core.ExecutionError.
func (p *Pool) Join(ctx context.Context, works ...Work) ([]*Handle, error) {
	return p.exec.Join(ctx, works...)
}

// JoinWith is Join with a caller-supplied ErrorHandler.
func (p *Pool) JoinWith(ctx context.Context, handler ErrorHandler, works ...Work) ([]*Handle, error) {
	return p.exec.JoinWith(ctx, handler, works...)
}

// Shutdown stops accepting submissions and drains published groups to
// completion.
func (p *Pool) Shutdown() {
	p.exec.Shutdown()
}

// ShutdownNow stops accepting submissions and abandons queued, unclaimed
// handles, returning their work items as never run.
func (p *Pool) ShutdownNow() []Work {
	return p.exec.ShutdownNow()
}

// IsShutdown reports whether the pool has left the running state.
func (p *Pool) IsShutdown() bool {
	return p.exec.IsShutdown()
}

// IsTerminated reports whether the pool reached the terminated state.
func (p *Pool) IsTerminated() bool {
	return p.exec.IsTerminated()
}

// AwaitTermination blocks until every worker has exited or the timeout
// elapses, reporting which occurred.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	return p.exec.AwaitTermination(timeout)
}

// Stats returns current observability data for this pool.
func (p *Pool) Stats() ExecutorStats {
	return p.exec.Stats()
}

// RecentWork returns completed work execution records, newest first.
func (p *Pool) RecentWork(limit int) []core.WorkExecutionRecord {
	return p.exec.RecentWork(limit)
}
