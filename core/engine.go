package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// callerWorkerID marks executions performed by the joining caller during the
// stealing phase rather than by a pool worker.
const callerWorkerID = -1

// engine bundles the execution-site plumbing every executor kind shares:
// configured handlers, live counters, and the completed-work history.
// Executors embed it and route every handle execution through runHandle so
// pool workers and stealing callers are observed identically.
type engine struct {
	name            string
	panicHandler    PanicHandler
	metrics         Metrics
	rejectedHandler RejectedWorkHandler

	active  atomic.Int32
	pending atomic.Int32

	history executionHistory
}

func newEngine(config *ExecutorConfig, fallbackName string) engine {
	cfg := config.withDefaults(fallbackName)
	return engine{
		name:            cfg.Name,
		panicHandler:    cfg.PanicHandler,
		metrics:         cfg.Metrics,
		rejectedHandler: cfg.RejectedWorkHandler,
		history:         newExecutionHistory(defaultHistoryCapacity),
	}
}

// runHandle executes h exactly once if it is still unclaimed, trapping any
// failure so it cannot destabilize the calling goroutine. Reports whether
// this call performed the execution.
func (e *engine) runHandle(ctx context.Context, h *Handle, workerID int) bool {
	startedAt := time.Now()

	e.active.Add(1)
	ran := h.Run(ctx)
	e.active.Add(-1)

	if !ran {
		return false
	}
	e.pending.Add(-1)

	finishedAt := time.Now()
	duration := finishedAt.Sub(startedAt)
	e.metrics.RecordWorkDuration(e.name, duration)

	err := h.Err()
	panicked := false
	if err != nil && !errors.Is(err, ErrAbandoned) {
		e.metrics.RecordWorkFailure(e.name)

		var pe *PanicError
		if errors.As(err, &pe) {
			panicked = true
			e.metrics.RecordWorkPanic(e.name, pe.Value)
			e.panicHandler.HandlePanic(ctx, e.name, workerID, pe.Value, pe.Stack)
		}
	}

	e.history.Add(WorkExecutionRecord{
		Index:      h.Index(),
		Executor:   e.name,
		WorkerID:   workerID,
		Stolen:     workerID == callerWorkerID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Failed:     err != nil,
		Panicked:   panicked,
	})
	return true
}

// reject reports a refused submission through the configured handler and
// metrics.
func (e *engine) reject(reason string) {
	e.rejectedHandler.HandleRejectedWork(e.name, reason)
	e.metrics.RecordWorkRejected(e.name, reason)
}

// awaitGroup is the wait phase of the join protocol: Await each handle in
// submission order, routing failures through handler. A non-nil handler
// return aborts the remaining loop; context cancellation stops waiting for
// this caller only.
func (e *engine) awaitGroup(ctx context.Context, g *Group, handler ErrorHandler) error {
	if handler == nil {
		handler = FailFast
	}

	for i, h := range g.Handles() {
		_, err := h.Await(ctx)
		if err == nil {
			continue
		}
		if !h.Completed() {
			// Cancellation wake, not a completion: stop waiting.
			return err
		}
		if herr := handler(i, err); herr != nil {
			return herr
		}
	}
	return nil
}

// Name returns the executor's configured name.
func (e *engine) Name() string {
	return e.name
}

// RecentWork returns completed work execution records, newest first.
func (e *engine) RecentWork(limit int) []WorkExecutionRecord {
	return e.history.Recent(limit)
}
