// Package joinexec provides a joinable task-execution framework for Go.
//
// A caller submits a batch of related work items with one Join call. The
// framework wraps each item in a result handle, publishes the batch as a
// task group to a shared queue serviced by a fixed pool of workers, and then
// has the calling goroutine steal and execute items from its own group before
// blocking on whatever the workers have not finished yet. Workers rotate
// breadth-first across groups - one item per group per pass - so many
// concurrently submitted batches make simultaneous progress.
//
// # Quick Start
//
// Create a pool and join a batch of work:
//
//	pool := joinexec.New("render", 4)
//	defer pool.Shutdown()
//
//	handles, err := pool.Join(ctx,
//		func(ctx context.Context) (any, error) { return loadA(ctx) },
//		func(ctx context.Context) (any, error) { return loadB(ctx) },
//	)
//	if err != nil {
//		// First failure, wrapped in *core.ExecutionError.
//	}
//	a := handles[0].Value()
//
// # Key Concepts
//
// Work: the unit of work, a value-producing function. Side-effecting work is
// lifted with Action.
//
// Handle: the per-item wrapper tracking pending/complete state and the
// result-or-failure slot. Executed exactly once, by whichever goroutine
// claims it first.
//
// Work-stealing: the calling goroutine executes items from its own submitted
// group instead of only waiting on pool workers. A join is therefore never
// slower than the caller running the batch alone.
//
// Breadth-first rotation: a partially-drained group is re-enqueued behind
// other groups rather than drained to completion, so no group monopolizes
// the workers.
//
// # Configurations
//
// New creates the grouped pool executor. NewDirect creates a zero-worker
// executor where the caller runs everything synchronously. NewFlat creates a
// non-grouped executor with one first-come-first-served queue of individual
// handles. All three satisfy the same Executor contract.
//
// # Shutdown
//
// Shutdown stops accepting submissions and drains published groups; each
// worker finishes its current group completely before exiting. ShutdownNow
// additionally abandons queued, unclaimed handles and returns their work
// items as never run. AwaitTermination bounds how long a caller waits for
// the workers to exit.
package joinexec
