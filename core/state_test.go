package core

import (
	"sync"
	"testing"
)

// TestStateRegister_AdvanceForwardOnly verifies monotonic transitions
// Given: A register in the running state
// When: Advance is called with increasing and then decreasing targets
// Then: Forward transitions succeed once; backward targets are refused
func TestStateRegister_AdvanceForwardOnly(t *testing.T) {
	var r stateRegister

	if got := r.Load(); got != StateRunning {
		t.Fatalf("initial state = %v, want running", got)
	}

	if !r.Advance(StateShutDown) {
		t.Error("Advance(shutdown) = false, want true")
	}
	if r.Advance(StateShutDown) {
		t.Error("repeated Advance(shutdown) = true, want false")
	}
	if !r.Advance(StateTerminated) {
		t.Error("Advance(terminated) = false, want true")
	}
	if r.Advance(StateShutDown) {
		t.Error("backward Advance(shutdown) = true, want false")
	}
	if got := r.Load(); got != StateTerminated {
		t.Errorf("state = %v, want terminated", got)
	}
}

// TestStateRegister_SkipTransition verifies the shutdownNow jump
// Given: A register in the running state
// When: Advance goes straight to terminated
// Then: The transition succeeds and shutdown can no longer be entered
func TestStateRegister_SkipTransition(t *testing.T) {
	var r stateRegister

	if !r.Advance(StateTerminated) {
		t.Error("Advance(terminated) from running = false, want true")
	}
	if r.Advance(StateShutDown) {
		t.Error("Advance(shutdown) after terminated = true, want false")
	}
}

// TestStateRegister_ConcurrentShutdowns verifies monotonicity under races
// Given: Many goroutines racing Shutdown-style and ShutdownNow-style advances
// When: All goroutines finish
// Then: The register is terminated and no observer ever saw it move backward
func TestStateRegister_ConcurrentShutdowns(t *testing.T) {
	var r stateRegister

	var wg sync.WaitGroup
	observed := make(chan State, 64)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		target := StateShutDown
		if i%2 == 0 {
			target = StateTerminated
		}
		go func() {
			defer wg.Done()
			before := r.Load()
			r.Advance(target)
			after := r.Load()
			observed <- before
			if after < before {
				t.Errorf("state moved backward: %v -> %v", before, after)
			}
		}()
	}
	wg.Wait()
	close(observed)

	if got := r.Load(); got != StateTerminated {
		t.Errorf("final state = %v, want terminated", got)
	}
}

// TestState_String verifies state labels
func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateRunning:    "running",
		StateShutDown:   "shutdown",
		StateTerminated: "terminated",
		State(99):       "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
