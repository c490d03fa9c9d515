package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// maxAllowedWorkers caps the worker count. Values higher than this could lead
// to excessive goroutine creation and memory exhaustion.
const maxAllowedWorkers = 10000

// PoolExecutor services submitted groups with a fixed set of K persistent
// worker goroutines in breadth-first rotation: a worker executes one item
// from the head group, then re-enqueues the group at the tail, so a group
// with many pending items is interleaved with other groups instead of
// monopolizing a worker until fully drained. Every non-empty group receives
// worker attention at least once per full queue rotation.
//
// Joining callers race with the workers over the same groups; this race is
// intentional and is where the performance benefit comes from.
type PoolExecutor struct {
	engine

	workers int
	groups  *workQueue[*Group]
	state   stateRegister

	stopCh   chan struct{} // closed on the first transition out of running
	stopOnce sync.Once
	doneCh   chan struct{} // closed once every worker has exited
	wg       sync.WaitGroup
}

var _ Executor = (*PoolExecutor)(nil)

// NewPoolExecutor creates a running executor with exactly workers persistent
// goroutines. Panics if workers is out of the valid range [1, 10000]; use
// NewDirectExecutor for the zero-worker configuration.
func NewPoolExecutor(workers int, config *ExecutorConfig) *PoolExecutor {
	if workers < 1 {
		panic("PoolExecutor: workers must be at least 1")
	}
	if workers > maxAllowedWorkers {
		panic(fmt.Sprintf("PoolExecutor: workers must not exceed %d", maxAllowedWorkers))
	}

	e := &PoolExecutor{
		engine:  newEngine(config, "pool"),
		workers: workers,
		groups:  newWorkQueue[*Group](workers * 2),
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
func (e *PoolExecutor) WorkerCount() int {
	return e.workers
}

// State returns the current lifecycle state.
func (e *PoolExecutor) State() State {
	return e.state.Load()
}

// Execute submits one work item fire-and-forget.
func (e *PoolExecutor) Execute(work Work) error {
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

// Join submits works as one group and blocks until all are completed,
// routing failures through FailFast.
func (e *PoolExecutor) Join(ctx context.Context, works ...Work) ([]*Handle, error) {
	return e.JoinWith(ctx, FailFast, works...)
}

// JoinWith implements the join protocol: publish the group, let the calling
// goroutine steal and execute items from its own group, then await the
// remainder in submission order.
func (e *PoolExecutor) JoinWith(ctx context.Context, handler ErrorHandler, works ...Work) ([]*Handle, error) {
	if e.state.Load() != StateRunning {
		e.reject("shutdown")
		return nil, ErrRejected
	}

	g, err := newGroup(works)
	if err != nil {
		return nil, err
	}
	e.publish(g)

	// Work-stealing phase: drain our own group alongside the pool workers.
	for h := g.PollNext(); h != nil; h = g.PollNext() {
		e.runHandle(ctx, h, callerWorkerID)
	}

	// Wait phase.
	if err := e.awaitGroup(ctx, g, handler); err != nil {
		return g.Handles(), err
	}
	return g.Handles(), nil
}

func (e *PoolExecutor) publish(g *Group) {
	e.pending.Add(int32(g.Size()))
	e.groups.Enqueue(g)
	e.metrics.RecordQueueDepth(e.name, e.groups.Len())
}

// =============================================================================
// Worker loop
// =============================================================================

func (e *PoolExecutor) workerLoop(id int) {
	defer e.wg.Done()

	for {
		g, ok := e.nextGroup()
		if !ok {
			return
		}

		h := g.PollNext()
		if h == nil {
			// Fully drained by other pollers; drop the reference.
			continue
		}
		e.runHandle(context.Background(), h, id)

		switch e.state.Load() {
		case StateRunning:
			// Breadth-first rotation: back of the queue, not fully drained.
			if g.Pending() > 0 {
				e.groups.Enqueue(g)
				e.metrics.RecordQueueDepth(e.name, e.groups.Len())
			}
		case StateShutDown:
			// Graceful shutdown: finish the current group completely, never
			// re-enqueue. A group still in the queue behind others keeps its
			// position until a worker reaches it.
			for h := g.PollNext(); h != nil; h = g.PollNext() {
				e.runHandle(context.Background(), h, id)
			}
		default:
			// Terminated: exit without completing remaining items.
			return
		}
	}
}

// nextGroup blocks until a group is available, the executor terminates, or
// shutdown finds the shared queue empty.
func (e *PoolExecutor) nextGroup() (*Group, bool) {
	for {
		if e.state.Load() == StateTerminated {
			return nil, false
		}
		if g, ok := e.groups.TryDequeue(); ok {
			return g, true
		}
		if e.state.Load() != StateRunning {
			// Shutdown with an empty shared queue: this worker is done.
			return nil, false
		}

		select {
		case <-e.groups.Wake():
		case <-e.stopCh:
			// State change signal; re-check on the next iteration.
		}
	}
}

func (e *PoolExecutor) watchTermination() {
	<-e.stopCh
	e.wg.Wait()
	e.state.Advance(StateTerminated)
	close(e.doneCh)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Shutdown stops accepting submissions; published groups drain to completion
// and the executor transitions to terminated once every worker has exited.
// Safe to call repeatedly and concurrently with ShutdownNow.
func (e *PoolExecutor) Shutdown() {
	e.state.Advance(StateShutDown)
	e.signalStop()
}

// ShutdownNow stops accepting submissions and abandons queued, unclaimed
// handles, returning their work items as never run. Abandoned handles
// complete with ErrAbandoned so concurrent joiners observe the abandonment
// instead of blocking forever. Handles already claimed run to completion.
func (e *PoolExecutor) ShutdownNow() []Work {
	e.state.Advance(StateTerminated)
	e.signalStop()

	var abandoned []Work
	for _, g := range e.groups.DrainAll() {
		for h := g.PollNext(); h != nil; h = g.PollNext() {
			if h.abandon() {
				e.pending.Add(-1)
				abandoned = append(abandoned, h.work)
			}
		}
	}
	return abandoned
}

func (e *PoolExecutor) signalStop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

// IsShutdown reports whether the executor has left the running state.
func (e *PoolExecutor) IsShutdown() bool {
	return e.state.Load() != StateRunning
}

// IsTerminated reports whether the executor reached the terminated state.
func (e *PoolExecutor) IsTerminated() bool {
	return e.state.Load() == StateTerminated
}

// AwaitTermination blocks until every worker has exited or the timeout
// elapses, reporting which occurred.
func (e *PoolExecutor) AwaitTermination(timeout time.Duration) bool {
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
func (e *PoolExecutor) Stats() ExecutorStats {
	stats := ExecutorStats{
		Name:        e.name,
		Type:        "pool",
		Workers:     e.workers,
		Queued:      e.groups.Len(),
		PendingWork: int(e.pending.Load()),
		Active:      int(e.active.Load()),
		State:       e.state.Load(),
	}
	if last, ok := e.history.Last(); ok {
		stats.LastWorkAt = last.FinishedAt
	}
	return stats
}
