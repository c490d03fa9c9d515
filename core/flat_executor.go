package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FlatExecutor is the non-grouped configuration: one shared FIFO of
// individual handles serviced first-come-first-served by K persistent
// workers. It keeps the join contract - the calling goroutine still steals
// its own submitted handles before waiting - but without breadth-first
// rotation, so a large early submission can starve later ones of worker
// attention.
type FlatExecutor struct {
	engine

	workers int
	handles *workQueue[*Handle]
	state   stateRegister

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

var _ Executor = (*FlatExecutor)(nil)

// NewFlatExecutor creates a running flat executor with exactly workers
// persistent goroutines. Panics if workers is out of the valid range
// [1, 10000].
func NewFlatExecutor(workers int, config *ExecutorConfig) *FlatExecutor {
	if workers < 1 {
		panic("FlatExecutor: workers must be at least 1")
	}
	if workers > maxAllowedWorkers {
		panic(fmt.Sprintf("FlatExecutor: workers must not exceed %d", maxAllowedWorkers))
	}

	e := &FlatExecutor{
		engine:  newEngine(config, "flat"),
		workers: workers,
		handles: newWorkQueue[*Handle](workers * 2),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.workerLoop(i)
	}
	go e.watchTermination()

	return e
}

// WorkerCount returns the fixed number of pool workers.
func (e *FlatExecutor) WorkerCount() int {
	return e.workers
}

// State returns the current lifecycle state.
func (e *FlatExecutor) State() State {
	return e.state.Load()
}

// Execute submits one work item fire-and-forget.
func (e *FlatExecutor) Execute(work Work) error {
	if e.state.Load() != StateRunning {
		e.reject("shutdown")
		return ErrRejected
	}

	g, err := newGroup([]Work{work})
	if err != nil {
		return err
	}
	e.publish(g)
	return nil
}

// Join submits works and blocks until all are completed, routing failures
// through FailFast.
func (e *FlatExecutor) Join(ctx context.Context, works ...Work) ([]*Handle, error) {
	return e.JoinWith(ctx, FailFast, works...)
}

// JoinWith publishes each handle individually to the shared flat queue, then
// steals: the caller races the workers handle by handle, relying on the
// exactly-once claim in Handle.Run rather than group cursor exclusivity.
func (e *FlatExecutor) JoinWith(ctx context.Context, handler ErrorHandler, works ...Work) ([]*Handle, error) {
	if e.state.Load() != StateRunning {
		e.reject("shutdown")
		return nil, ErrRejected
	}

	g, err := newGroup(works)
	if err != nil {
		return nil, err
	}
	e.publish(g)

	// Work-stealing phase: claim whatever the workers have not taken yet.
	// Claimed handles stay in the shared queue; workers skip them on pop.
	for h := g.PollNext(); h != nil; h = g.PollNext() {
		e.runHandle(ctx, h, callerWorkerID)
	}

	if err := e.awaitGroup(ctx, g, handler); err != nil {
		return g.Handles(), err
	}
	return g.Handles(), nil
}

func (e *FlatExecutor) publish(g *Group) {
	e.pending.Add(int32(g.Size()))
	for _, h := range g.Handles() {
		e.handles.Enqueue(h)
	}
	e.metrics.RecordQueueDepth(e.name, e.handles.Len())
}

// =============================================================================
// Worker loop
// =============================================================================

func (e *FlatExecutor) workerLoop(id int) {
	defer e.wg.Done()

	for {
		if e.state.Load() == StateTerminated {
			return
		}

		if h, ok := e.handles.TryDequeue(); ok {
			// May have been claimed by a stealing caller; runHandle no-ops
			// in that case.
			e.runHandle(context.Background(), h, id)
			continue
		}

		if e.state.Load() != StateRunning {
			// Shutdown with an empty shared queue: this worker is done.
			return
		}

		select {
		case <-e.handles.Wake():
		case <-e.stopCh:
		}
	}
}

func (e *FlatExecutor) watchTermination() {
	<-e.stopCh
	e.wg.Wait()
	e.state.Advance(StateTerminated)
	close(e.doneCh)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Shutdown stops accepting submissions; queued handles drain first-come-
// first-served and the executor transitions to terminated once every worker
// has exited.
func (e *FlatExecutor) Shutdown() {
	e.state.Advance(StateShutDown)
	e.signalStop()
}

// ShutdownNow stops accepting submissions and abandons queued, unclaimed
// handles, returning their work items as never run. Abandoned handles
// complete with ErrAbandoned.
func (e *FlatExecutor) ShutdownNow() []Work {
	e.state.Advance(StateTerminated)
	e.signalStop()

	var abandoned []Work
	for _, h := range e.handles.DrainAll() {
		if h.abandon() {
			e.pending.Add(-1)
			abandoned = append(abandoned, h.work)
		}
	}
	return abandoned
}

func (e *FlatExecutor) signalStop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

// IsShutdown reports whether the executor has left the running state.
func (e *FlatExecutor) IsShutdown() bool {
	return e.state.Load() != StateRunning
}

// IsTerminated reports whether the executor reached the terminated state.
func (e *FlatExecutor) IsTerminated() bool {
	return e.state.Load() == StateTerminated
}

// AwaitTermination blocks until every worker has exited or the timeout
// elapses, reporting which occurred.
func (e *FlatExecutor) AwaitTermination(timeout time.Duration) bool {
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
func (e *FlatExecutor) Stats() ExecutorStats {
	stats := ExecutorStats{
		Name:        e.name,
		Type:        "flat",
		Workers:     e.workers,
		Queued:      e.handles.Len(),
		PendingWork: int(e.pending.Load()),
		Active:      int(e.active.Load()),
		State:       e.state.Load(),
	}
	if last, ok := e.history.Last(); ok {
		stats.LastWorkAt = last.FinishedAt
	}
	return stats
}
