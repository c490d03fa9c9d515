package core

import (
	"sync"

	"github.com/eapache/queue"
)

// workQueue is a thread-safe FIFO with a buffered wake-signal channel.
// The ring buffer is guarded by a mutex; the signal channel is an
// optimization hint for blocked consumers, not a source of truth - consumers
// must re-check TryDequeue after waking.
//
// PoolExecutor uses it as the shared group queue (breadth-first rotation
// re-enqueues partially-drained groups at the tail); FlatExecutor uses it as
// a flat queue of individual handles.
type workQueue[T any] struct {
	mu     sync.Mutex
	ring   *queue.Queue
	signal chan struct{}
}

func newWorkQueue[T any](signalCap int) *workQueue[T] {
	if signalCap < 1 {
		signalCap = 1
	}
	return &workQueue[T]{
		ring:   queue.New(),
		signal: make(chan struct{}, signalCap),
	}
}

// Enqueue appends v at the tail and nudges one blocked consumer.
func (q *workQueue[T]) Enqueue(v T) {
	q.mu.Lock()
	q.ring.Add(v)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
		// Signal channel full; a consumer is already due to wake.
	}
}

// TryDequeue removes and returns the head, non-blocking.
func (q *workQueue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.ring.Length() == 0 {
		return zero, false
	}
	return q.ring.Remove().(T), true
}

// Wake returns the signal channel consumers block on when the queue is empty.
func (q *workQueue[T]) Wake() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *workQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Length()
}

// DrainAll removes and returns every queued element, head first.
func (q *workQueue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ring.Length() == 0 {
		return nil
	}
	out := make([]T, 0, q.ring.Length())
	for q.ring.Length() > 0 {
		out = append(out, q.ring.Remove().(T))
	}
	return out
}
