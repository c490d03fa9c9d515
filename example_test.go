package joinexec_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joinexec/joinexec"
)

// Example demonstrates the basic join workflow: submit a batch, let the
// calling goroutine help the pool execute it, collect ordered results.
func Example() {
	pool := joinexec.New("example", 4)
	defer func() {
		pool.Shutdown()
		pool.AwaitTermination(5 * time.Second)
	}()

	handles, err := pool.Join(context.Background(),
		func(ctx context.Context) (any, error) { return 1 * 10, nil },
		func(ctx context.Context) (any, error) { return 2 * 10, nil },
		func(ctx context.Context) (any, error) { return 3 * 10, nil },
	)
	if err != nil {
		fmt.Println("join failed:", err)
		return
	}

	for _, h := range handles {
		fmt.Println(h.Value())
	}
	// Output:
	// 10
	// 20
	// 30
}

// ExamplePool_JoinWith demonstrates collecting every failure instead of
// aborting on the first one.
func ExamplePool_JoinWith() {
	pool := joinexec.New("collect-example", 2)
	defer func() {
		pool.Shutdown()
		pool.AwaitTermination(5 * time.Second)
	}()

	var failures []error
	handles, err := pool.JoinWith(context.Background(), joinexec.Collect(&failures),
		func(ctx context.Context) (any, error) { return "ok", nil },
		func(ctx context.Context) (any, error) { return nil, errors.New("disk full") },
		func(ctx context.Context) (any, error) { return "ok", nil },
	)
	if err != nil {
		fmt.Println("join failed:", err)
		return
	}

	fmt.Println("completed:", len(handles))
	fmt.Println("failures:", len(failures))
	fmt.Println("cause:", joinexec.CauseOf(failures[0]))
	// Output:
	// completed: 3
	// failures: 1
	// cause: disk full
}
