package core

import "sync"

// Group is an ordered, closed-for-append batch of handles submitted atomically
// by one join call. Handles are fixed at construction; a cursor under a mutex
// makes PollNext removal exactly-once even when the joining caller and pool
// workers drain the same group concurrently.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
	next    int
}

// newGroup wraps works into handles in submission order and returns the group
// referencing all of them. Fails with ErrNoWork on an empty list or a nil
// element.
func newGroup(works []Work) (*Group, error) {
	if len(works) == 0 {
		return nil, ErrNoWork
	}

	handles := make([]*Handle, len(works))
	for i, w := range works {
		if w == nil {
			return nil, ErrNoWork
		}
		handles[i] = newHandle(w, i)
	}
	return &Group{handles: handles}, nil
}

// PollNext removes and returns the next unexecuted handle, or nil if none
// remain. Two concurrent pollers never receive the same handle.
func (g *Group) PollNext() *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next >= len(g.handles) {
		return nil
	}
	h := g.handles[g.next]
	g.next++
	return h
}

// Handles returns every handle of the group in submission order.
func (g *Group) Handles() []*Handle {
	// The slice is never appended to after construction, so it can be shared.
	return g.handles
}

// Size returns the number of handles in the group.
func (g *Group) Size() int {
	return len(g.handles)
}

// Pending returns the number of handles not yet claimed via PollNext.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles) - g.next
}

// Drained reports whether every handle has been claimed via PollNext.
func (g *Group) Drained() bool {
	return g.Pending() == 0
}
