// Package dedupe remembers recently audited request ids so that a retried
// request is persisted once.
package dedupe

import (
	"context"
	"sync"
)

// DefaultCapacity is the number of ids remembered when no option is given.
const DefaultCapacity = 10000

// Deduper tracks ids that were already accepted.
type Deduper interface {
	// SeenAndRecord reports whether id was seen before and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Forget drops id so that a later attempt is accepted again.
	// Used when an accepted record could not be queued or persisted.
	Forget(ctx context.Context, id string)

	Size() int
}

// ringDeduper keeps the most recent ids in a fixed ring; the oldest id is
// overwritten once the ring is full.
type ringDeduper struct {
	mu       sync.Mutex
	capacity int
	ring     []string
	index    map[string]int // id -> slot in ring
	next     int
}

// New creates a bounded in-memory deduper.
func New(opts ...Option) Deduper {
	d := &ringDeduper{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(d)
	}
	d.ring = make([]string, d.capacity)
	d.index = make(map[string]int, d.capacity)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true
	}

	if old := d.ring[d.next]; old != "" {
		if slot, ok := d.index[old]; ok && slot == d.next {
			delete(d.index, old)
		}
	}
	d.ring[d.next] = id
	d.index[id] = d.next
	d.next = (d.next + 1) % d.capacity
	return false
}

func (d *ringDeduper) Forget(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.index[id]
	if !ok {
		return
	}
	delete(d.index, id)
	d.ring[slot] = ""
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.index)
}
