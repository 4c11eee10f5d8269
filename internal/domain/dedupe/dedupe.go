// Package dedupe coalesces frame requests so that each race session has at
// most one frame waiting in the queue at a time.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxPending = 50000

// Coalescer tracks which sessions already have a frame pending.
type Coalescer interface {
	// Claim marks id as pending. It returns true when id already had a
	// pending frame, in which case the caller drops the new one.
	Claim(ctx context.Context, id string) bool

	// Release clears the pending mark once the frame was processed or could
	// not be enqueued.
	Release(ctx context.Context, id string)

	Size() int64
}

// node is one claim in insertion order.
type node struct {
	id         string
	prev, next *node
}

func (n *node) reset() {
	n.id = ""
	n.prev, n.next = nil, nil
}

// inMemoryCoalescer keeps claims in a map plus a doubly linked list ordered
// oldest first, so a bounded coalescer can evict the oldest claim in O(1).
type inMemoryCoalescer struct {
	mu         sync.Mutex
	pending    map[string]*node
	head, tail *node
	maxPending int
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewInMemoryCoalescer creates a coalescer with configuration options.
func NewInMemoryCoalescer(opts ...Option) Coalescer {
	c := &inMemoryCoalescer{
		maxPending: defaultMaxPending,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.pending = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

// Claim implements Coalescer.
func (c *inMemoryCoalescer) Claim(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[id]; exists {
		return true
	}

	if c.maxPending > 0 && len(c.pending) >= c.maxPending {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.id = id
	c.pushBack(n)
	c.pending[id] = n
	c.size.Add(1)
	return false
}

// Release implements Coalescer.
func (c *inMemoryCoalescer) Release(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, exists := c.pending[id]
	if !exists {
		return
	}
	c.remove(n)
}

// Size returns the number of pending claims.
func (c *inMemoryCoalescer) Size() int64 {
	return c.size.Load()
}

// evictOldest drops the head claim. Must be called with c.mu held.
func (c *inMemoryCoalescer) evictOldest() {
	if c.head != nil {
		c.remove(c.head)
	}
}

func (c *inMemoryCoalescer) pushBack(n *node) {
	n.prev = c.tail
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
}

// remove unlinks n and returns it to the pool. Must be called with c.mu held.
func (c *inMemoryCoalescer) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	delete(c.pending, n.id)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}
