package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls check until it holds or the timeout elapses. Counters,
// metrics, and history are updated after a handle completes, so a joiner can
// observe completion slightly before the executing goroutine finishes
// bookkeeping.
func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newTestPool(t *testing.T, workers int) *PoolExecutor {
	t.Helper()
	e := NewPoolExecutor(workers, &ExecutorConfig{
		Name:   "test-pool",
		Logger: NewNoOpLogger(),
	})
	t.Cleanup(func() {
		e.ShutdownNow()
		e.AwaitTermination(2 * time.Second)
	})
	return e
}

// countingMetrics records metric calls for assertions.
type countingMetrics struct {
	durations atomic.Int32
	failures  atomic.Int32
	panics    atomic.Int32
	rejected  atomic.Int32
	depths    atomic.Int32
}

func (m *countingMetrics) RecordWorkDuration(name string, d time.Duration) { m.durations.Add(1) }
func (m *countingMetrics) RecordWorkFailure(name string)                   { m.failures.Add(1) }
func (m *countingMetrics) RecordWorkPanic(name string, info any)           { m.panics.Add(1) }
func (m *countingMetrics) RecordWorkRejected(name string, reason string)   { m.rejected.Add(1) }
func (m *countingMetrics) RecordQueueDepth(name string, depth int)         { m.depths.Add(1) }

// recordingPanicHandler captures trapped panics.
type recordingPanicHandler struct {
	mu     sync.Mutex
	panics []any
}

func (h *recordingPanicHandler) HandlePanic(ctx context.Context, name string, workerID int, info any, stack []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panics = append(h.panics, info)
}

// TestPoolExecutor_Join_CompletesAllWork verifies work conservation
// Given: A pool of 4 workers and 50 counting work items
// When: Join is called
// Then: Every handle is completed exactly once with its own result
func TestPoolExecutor_Join_CompletesAllWork(t *testing.T) {
	// Arrange
	e := newTestPool(t, 4)

	const items = 50
	counters := make([]atomic.Int32, items)
	works := make([]Work, items)
	for i := range works {
		idx := i
		works[i] = func(ctx context.Context) (any, error) {
			counters[idx].Add(1)
			return idx, nil
		}
	}

	// Act
	handles, err := e.Join(context.Background(), works...)

	// Assert
	if err != nil {
		t.Fatalf("Join() error = %v, want nil", err)
	}
	if len(handles) != items {
		t.Fatalf("Join() returned %d handles, want %d", len(handles), items)
	}
	for i, h := range handles {
		if !h.Completed() {
			t.Errorf("handle %d not completed after Join", i)
		}
		if got := h.Value(); got != i {
			t.Errorf("handle %d value = %v, want %d", i, got, i)
		}
		if got := counters[i].Load(); got != 1 {
			t.Errorf("work %d executed %d times, want 1", i, got)
		}
	}
}

// TestPoolExecutor_Join_RejectsEmptySubmission verifies input validation
// Given: A running pool
// When: Join is called with no items
// Then: It fails with ErrNoWork
func TestPoolExecutor_Join_RejectsEmptySubmission(t *testing.T) {
	e := newTestPool(t, 1)

	if _, err := e.Join(context.Background()); !errors.Is(err, ErrNoWork) {
		t.Errorf("Join() error = %v, want ErrNoWork", err)
	}
}

// TestPoolExecutor_Join_SecondItemFails verifies default error routing
// Given: A join of 3 items where the second fails
// When: Join uses the default FailFast handler
// Then: Join returns an *ExecutionError for index 1, and the first and third
//       items are nonetheless completed
func TestPoolExecutor_Join_SecondItemFails(t *testing.T) {
	e := newTestPool(t, 2)

	boom := errors.New("boom")
	var first, third atomic.Bool

	handles, err := e.Join(context.Background(),
		func(ctx context.Context) (any, error) {
			first.Store(true)
			return 1, nil
		},
		func(ctx context.Context) (any, error) {
			return nil, boom
		},
		func(ctx context.Context) (any, error) {
			third.Store(true)
			return 3, nil
		},
	)

	var ee *ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("Join() error = %v, want *ExecutionError", err)
	}
	if ee.Index != 1 {
		t.Errorf("ExecutionError.Index = %d, want 1", ee.Index)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Join() error does not wrap the cause: %v", err)
	}

	// FailFast aborts the wait loop at index 1, so Join may return while a
	// worker is still finishing the third item; await it before asserting.
	if _, err := handles[2].Await(context.Background()); err != nil {
		t.Errorf("third item error = %v, want nil", err)
	}
	if !first.Load() || !third.Load() {
		t.Error("first and third items should have executed despite the failure")
	}
	for i, h := range handles {
		if !h.Completed() {
			t.Errorf("handle %d not completed", i)
		}
	}
}

// TestPoolExecutor_JoinWith_CollectContinues verifies record-and-continue
// Given: A join of 4 items where two fail
// When: JoinWith uses the Collect handler
// Then: Join returns nil error and both failures are collected
func TestPoolExecutor_JoinWith_CollectContinues(t *testing.T) {
	e := newTestPool(t, 2)

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("bad") }
	ok := func(ctx context.Context) (any, error) { return nil, nil }

	var collected []error
	_, err := e.JoinWith(context.Background(), Collect(&collected), ok, fail, ok, fail)

	if err != nil {
		t.Fatalf("JoinWith() error = %v, want nil", err)
	}
	if len(collected) != 2 {
		t.Fatalf("collected %d errors, want 2", len(collected))
	}
}

// TestPoolExecutor_Join_PanicBecomesExecutionError verifies panic routing
// Given: A join where one item panics
// When: Join uses the default handler
// Then: The error chain contains a *PanicError, the pool stays usable,
//       and the configured PanicHandler observed the panic
func TestPoolExecutor_Join_PanicBecomesExecutionError(t *testing.T) {
	handler := &recordingPanicHandler{}
	e := NewPoolExecutor(2, &ExecutorConfig{
		Name:         "panic-pool",
		Logger:       NewNoOpLogger(),
		PanicHandler: handler,
	})
	defer func() {
		e.Shutdown()
		e.AwaitTermination(2 * time.Second)
	}()

	_, err := e.Join(context.Background(),
		func(ctx context.Context) (any, error) { panic("kaboom") },
	)

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Join() error = %v, want chain containing *PanicError", err)
	}

	// The pool must survive the panic.
	handles, err := e.Join(context.Background(),
		func(ctx context.Context) (any, error) { return "alive", nil },
	)
	if err != nil {
		t.Fatalf("Join() after panic error = %v, want nil", err)
	}
	if got := handles[0].Value(); got != "alive" {
		t.Errorf("post-panic join value = %v, want alive", got)
	}

	waitFor(t, 2*time.Second, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.panics) == 1
	})
	handler.mu.Lock()
	defer handler.mu.Unlock()
	if handler.panics[0] != "kaboom" {
		t.Errorf("panic handler observed %v, want [kaboom]", handler.panics)
	}
}

// TestPoolExecutor_ConcurrentJoins verifies join isolation
// Given: A pool of 2 workers and 5 goroutines each joining one item
// When: All joins run concurrently
// Then: All 5 return, each observing only its own item's result
func TestPoolExecutor_ConcurrentJoins(t *testing.T) {
	e := newTestPool(t, 2)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		id := i
		go func() {
			defer wg.Done()
			handles, err := e.Join(context.Background(),
				func(ctx context.Context) (any, error) {
					return fmt.Sprintf("result-%d", id), nil
				},
			)
			if err != nil {
				t.Errorf("join %d error = %v, want nil", id, err)
				return
			}
			want := fmt.Sprintf("result-%d", id)
			if got := handles[0].Value(); got != want {
				t.Errorf("join %d value = %v, want %v", id, got, want)
			}
		}()
	}
	wg.Wait()
}

// TestPoolExecutor_BreadthFirstRotation verifies scheduling fairness
// Given: A pool of 1 worker with 3 pre-published groups of 3 items each,
//        all items gated on a release channel
// When: The gate opens and the worker services the queue
// Then: Every group receives its first execution before any group receives
//       its second
func TestPoolExecutor_BreadthFirstRotation(t *testing.T) {
	e := newTestPool(t, 1)

	const groups = 3
	const perGroup = 3

	release := make(chan struct{})
	var mu sync.Mutex
	var order []int

	var done sync.WaitGroup
	done.Add(groups * perGroup)

	for gi := 0; gi < groups; gi++ {
		works := make([]Work, perGroup)
		for wi := range works {
			groupID := gi
			works[wi] = func(ctx context.Context) (any, error) {
				<-release
				mu.Lock()
				order = append(order, groupID)
				mu.Unlock()
				done.Done()
				return nil, nil
			}
		}
		g, err := newGroup(works)
		if err != nil {
			t.Fatalf("newGroup failed: %v", err)
		}
		e.publish(g)
	}

	close(release)
	done.Wait()

	mu.Lock()
	defer mu.Unlock()

	if len(order) != groups*perGroup {
		t.Fatalf("executed %d items, want %d", len(order), groups*perGroup)
	}

	// With a single worker and no joining caller, the first `groups` slots of
	// the execution order must each belong to a distinct group.
	seen := make(map[int]bool)
	for _, groupID := range order[:groups] {
		if seen[groupID] {
			t.Fatalf("group %d serviced twice before every group was serviced once: %v", groupID, order)
		}
		seen[groupID] = true
	}
}

// TestPoolExecutor_Execute_FireAndForget verifies asynchronous submission
// Given: A running pool
// When: Execute submits an item
// Then: The item eventually runs without the submitter awaiting it
func TestPoolExecutor_Execute_FireAndForget(t *testing.T) {
	e := newTestPool(t, 2)

	done := make(chan struct{})
	if err := e.Execute(func(ctx context.Context) (any, error) {
		close(done)
		return nil, nil
	}); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Execute item did not run within 2s")
	}
}

// TestPoolExecutor_Execute_PanicDoesNotKillWorker verifies worker resilience
// Given: A pool of 1 worker
// When: An Execute item panics
// Then: The single worker survives and services the next item
func TestPoolExecutor_Execute_PanicDoesNotKillWorker(t *testing.T) {
	e := newTestPool(t, 1)

	if err := e.Execute(func(ctx context.Context) (any, error) {
		panic("worker killer")
	}); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	done := make(chan struct{})
	if err := e.Execute(func(ctx context.Context) (any, error) {
		close(done)
		return nil, nil
	}); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

// TestPoolExecutor_RejectsAfterShutdown verifies submission gating
// Given: A pool that has been shut down
// When: Execute and Join are called
// Then: Both fail with ErrRejected and the rejection is recorded
func TestPoolExecutor_RejectsAfterShutdown(t *testing.T) {
	metrics := &countingMetrics{}
	e := NewPoolExecutor(1, &ExecutorConfig{
		Name:    "reject-pool",
		Logger:  NewNoOpLogger(),
		Metrics: metrics,
	})

	e.Shutdown()
	if !e.AwaitTermination(2 * time.Second) {
		t.Fatal("AwaitTermination() = false, want true")
	}

	if err := e.Execute(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("Execute() error = %v, want ErrRejected", err)
	}
	if _, err := e.Join(context.Background(), func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrRejected) {
		t.Errorf("Join() error = %v, want ErrRejected", err)
	}
	if got := metrics.rejected.Load(); got != 2 {
		t.Errorf("rejected metric = %d, want 2", got)
	}
}

// TestPoolExecutor_Shutdown_DrainsPublishedWork verifies graceful shutdown
// Given: A pool of 1 worker with several queued Execute items
// When: Shutdown is called immediately after submission
// Then: Every previously-submitted item still executes and the pool
//       terminates
func TestPoolExecutor_Shutdown_DrainsPublishedWork(t *testing.T) {
	e := NewPoolExecutor(1, &ExecutorConfig{
		Name:   "drain-pool",
		Logger: NewNoOpLogger(),
	})

	const items = 10
	var executed atomic.Int32
	for n := 0; n < items; n++ {
		if err := e.Execute(func(ctx context.Context) (any, error) {
			time.Sleep(5 * time.Millisecond)
			executed.Add(1)
			return nil, nil
		}); err != nil {
			t.Fatalf("Execute() error = %v, want nil", err)
		}
	}

	e.Shutdown()

	if !e.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false, want true")
	}
	if got := executed.Load(); got != items {
		t.Errorf("executed = %d after graceful shutdown, want %d", got, items)
	}
	if !e.IsShutdown() || !e.IsTerminated() {
		t.Error("IsShutdown()/IsTerminated() = false after drain, want true")
	}
}

// TestPoolExecutor_ShutdownNow_AbandonsQueuedWork verifies abrupt shutdown
// Given: A pool of 1 worker blocked on a slow item, with more items queued
// When: ShutdownNow is called
// Then: Queued items are returned as abandoned and never execute, and their
//       handles complete with ErrAbandoned
func TestPoolExecutor_ShutdownNow_AbandonsQueuedWork(t *testing.T) {
	e := NewPoolExecutor(1, &ExecutorConfig{
		Name:   "abandon-pool",
		Logger: NewNoOpLogger(),
	})

	started := make(chan struct{})
	release := make(chan struct{})
	if err := e.Execute(func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	<-started

	var executed atomic.Int32
	const queued = 5
	for n := 0; n < queued; n++ {
		if err := e.Execute(func(ctx context.Context) (any, error) {
			executed.Add(1)
			return nil, nil
		}); err != nil {
			t.Fatalf("Execute() error = %v, want nil", err)
		}
	}

	abandoned := e.ShutdownNow()
	close(release)

	if len(abandoned) != queued {
		t.Errorf("ShutdownNow() returned %d works, want %d", len(abandoned), queued)
	}
	if !e.AwaitTermination(2 * time.Second) {
		t.Fatal("AwaitTermination() = false, want true")
	}
	if got := executed.Load(); got != 0 {
		t.Errorf("abandoned items executed %d times, want 0", got)
	}
	if !e.IsTerminated() {
		t.Error("IsTerminated() = false after ShutdownNow, want true")
	}
}

// TestPoolExecutor_ShutdownNow_CompletesJoinerHandles verifies abandonment
// is observable by a concurrent joiner instead of hanging it
// Given: A joiner whose group sits behind a blocked worker
// When: ShutdownNow abandons the group
// Then: The joiner's wait loop returns with ErrAbandoned in the chain
func TestPoolExecutor_ShutdownNow_CompletesJoinerHandles(t *testing.T) {
	e := NewPoolExecutor(1, &ExecutorConfig{
		Name:   "abandon-join-pool",
		Logger: NewNoOpLogger(),
	})
	defer e.AwaitTermination(2 * time.Second)

	// A group published directly, with no joining caller stealing from it,
	// simulating a joiner that has not reached its stealing phase yet.
	g, err := newGroup(makeWorks(2))
	if err != nil {
		t.Fatalf("newGroup failed: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	if err := e.Execute(func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	<-started
	e.publish(g)

	e.ShutdownNow()
	close(release)

	joinErr := e.awaitGroup(context.Background(), g, FailFast)
	if !errors.Is(joinErr, ErrAbandoned) {
		t.Errorf("awaitGroup error = %v, want chain containing ErrAbandoned", joinErr)
	}
}

// TestPoolExecutor_AwaitTermination_TimesOutWhileRunning verifies the bound
// Given: A running pool
// When: AwaitTermination is called with a short timeout
// Then: It returns false
func TestPoolExecutor_AwaitTermination_TimesOutWhileRunning(t *testing.T) {
	e := newTestPool(t, 1)

	if e.AwaitTermination(50 * time.Millisecond) {
		t.Error("AwaitTermination() = true while running, want false")
	}
}

// TestPoolExecutor_LifecycleMonotonic verifies state under concurrent shutdowns
// Given: A running pool
// When: Shutdown and ShutdownNow race from many goroutines
// Then: The pool terminates and the state never observed moves backward
func TestPoolExecutor_LifecycleMonotonic(t *testing.T) {
	e := NewPoolExecutor(2, &ExecutorConfig{
		Name:   "lifecycle-pool",
		Logger: NewNoOpLogger(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		now := i%2 == 0
		go func() {
			defer wg.Done()
			before := e.State()
			if now {
				e.ShutdownNow()
			} else {
				e.Shutdown()
			}
			after := e.State()
			if after < before {
				t.Errorf("state moved backward: %v -> %v", before, after)
			}
		}()
	}
	wg.Wait()

	if !e.AwaitTermination(2 * time.Second) {
		t.Fatal("AwaitTermination() = false, want true")
	}
	if got := e.State(); got != StateTerminated {
		t.Errorf("final state = %v, want terminated", got)
	}
}

// TestPoolExecutor_Metrics verifies metric emission
// Given: A pool with counting metrics
// When: A join with one success and one failure completes
// Then: Durations and failures are recorded
func TestPoolExecutor_Metrics(t *testing.T) {
	metrics := &countingMetrics{}
	e := NewPoolExecutor(2, &ExecutorConfig{
		Name:    "metrics-pool",
		Logger:  NewNoOpLogger(),
		Metrics: metrics,
	})
	defer func() {
		e.Shutdown()
		e.AwaitTermination(2 * time.Second)
	}()

	var collected []error
	_, err := e.JoinWith(context.Background(), Collect(&collected),
		func(ctx context.Context) (any, error) { return nil, nil },
		func(ctx context.Context) (any, error) { return nil, errors.New("bad") },
	)
	if err != nil {
		t.Fatalf("JoinWith() error = %v, want nil", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return metrics.durations.Load() == 2 && metrics.failures.Load() == 1
	})
	if metrics.depths.Load() == 0 {
		t.Error("queue depth metric never recorded")
	}
}

// TestPoolExecutor_Stats verifies the observability snapshot
// Given: A pool that has completed a join
// When: Stats is called
// Then: The snapshot reflects name, type, workers, state, and last work time
func TestPoolExecutor_Stats(t *testing.T) {
	e := newTestPool(t, 3)

	if _, err := e.Join(context.Background(), makeWorks(2)...); err != nil {
		t.Fatalf("Join() error = %v, want nil", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		s := e.Stats()
		return s.PendingWork == 0 && !s.LastWorkAt.IsZero()
	})

	stats := e.Stats()
	if stats.Name != "test-pool" {
		t.Errorf("Stats().Name = %q, want test-pool", stats.Name)
	}
	if stats.Type != "pool" {
		t.Errorf("Stats().Type = %q, want pool", stats.Type)
	}
	if stats.Workers != 3 {
		t.Errorf("Stats().Workers = %d, want 3", stats.Workers)
	}
	if stats.State != StateRunning {
		t.Errorf("Stats().State = %v, want running", stats.State)
	}
}

// TestNewPoolExecutor_PanicsOnInvalidWorkers verifies constructor guards
func TestNewPoolExecutor_PanicsOnInvalidWorkers(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewPoolExecutor(0) did not panic")
		}
	}()
	NewPoolExecutor(0, nil)
}
