package core

import (
	"context"
	"sync"
	"time"
)

// DirectExecutor is the zero-worker configuration of the join contract: the
// calling goroutine executes 100% of its own group during the stealing phase,
// and Execute runs synchronously on the caller. There is no shared queue and
// no pooled goroutine, so Shutdown transitions straight to terminated.
type DirectExecutor struct {
	engine

	state    stateRegister
	doneCh   chan struct{}
	stopOnce sync.Once
}

var _ Executor = (*DirectExecutor)(nil)

// NewDirectExecutor creates a running direct executor.
func NewDirectExecutor(config *ExecutorConfig) *DirectExecutor {
	return &DirectExecutor{
		engine: newEngine(config, "direct"),
		doneCh: make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (e *DirectExecutor) State() State {
	return e.state.Load()
}

// Execute runs work synchronously on the calling goroutine. Failures are
// trapped and reported through the configured handlers, matching the
// fire-and-forget contract of the pooled configurations.
func (e *DirectExecutor) Execute(work Work) error {
	if e.state.Load() != StateRunning {
		e.reject("shutdown")
		return ErrRejected
	}

	g, err := newGroup([]Work{work})
	if err != nil {
		return err
	}
	e.pending.Add(1)
	e.runHandle(context.Background(), g.PollNext(), callerWorkerID)
	return nil
}

// Join executes every item on the calling goroutine in submission order.
// The wait phase is a formality: by the time stealing finishes, every handle
// is already completed.
func (e *DirectExecutor) Join(ctx context.Context, works ...Work) ([]*Handle, error) {
	return e.JoinWith(ctx, FailFast, works...)
}

// JoinWith is Join with a caller-supplied ErrorHandler.
func (e *DirectExecutor) JoinWith(ctx context.Context, handler ErrorHandler, works ...Work) ([]*Handle, error) {
	if e.state.Load() != StateRunning {
		e.reject("shutdown")
		return nil, ErrRejected
	}

	g, err := newGroup(works)
	if err != nil {
		return nil, err
	}
	e.pending.Add(int32(g.Size()))

	for h := g.PollNext(); h != nil; h = g.PollNext() {
		e.runHandle(ctx, h, callerWorkerID)
	}

	if err := e.awaitGroup(ctx, g, handler); err != nil {
		return g.Handles(), err
	}
	return g.Handles(), nil
}

// Shutdown stops accepting submissions. With no pooled goroutines there is
// nothing to drain, so the executor is terminated immediately.
func (e *DirectExecutor) Shutdown() {
	e.state.Advance(StateShutDown)
	e.state.Advance(StateTerminated)
	e.stopOnce.Do(func() {
		close(e.doneCh)
	})
}

// ShutdownNow behaves like Shutdown; nothing is ever queued, so there are no
// abandoned items to return.
func (e *DirectExecutor) ShutdownNow() []Work {
	e.Shutdown()
	return nil
}

// IsShutdown reports whether the executor has left the running state.
func (e *DirectExecutor) IsShutdown() bool {
	return e.state.Load() != StateRunning
}

// IsTerminated reports whether the executor reached the terminated state.
func (e *DirectExecutor) IsTerminated() bool {
	return e.state.Load() == StateTerminated
}

// AwaitTermination blocks until Shutdown has been called or the timeout
// elapses.
func (e *DirectExecutor) AwaitTermination(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-e.doneCh:
		return true
	case <-timer.C:
		return false
	}
}

// Stats returns current observability data for this executor.
func (e *DirectExecutor) Stats() ExecutorStats {
	stats := ExecutorStats{
		Name:        e.name,
		Type:        "direct",
		PendingWork: int(e.pending.Load()),
		Active:      int(e.active.Load()),
		State:       e.state.Load(),
	}
	if last, ok := e.history.Last(); ok {
		stats.LastWorkAt = last.FinishedAt
	}
	return stats
}
