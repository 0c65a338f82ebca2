// Package queue carries audit records from request handlers to the audit workers.
//
// Enqueue never blocks: when the queue is full the record is dropped and
// counted, so auditing can never slow down an advice response.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/pkg/metrics"
)

// DefaultCapacity is the queue bound when no option is given.
const DefaultCapacity = 1024

// Item is one queued audit record.
type Item struct {
	Record     repository.AuditRecord
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record. It returns ErrFull or ErrClosed when the record was dropped.
	Enqueue(ctx context.Context, rec repository.AuditRecord) error
	// Dequeue returns the channel workers read from. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Item
	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, rec repository.AuditRecord) error { //nolint:gocritic // hugeParam: records are passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- Item{Record: rec, EnqueuedAt: q.now()}:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue. Dequeue bookkeeping is done by Ack.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan Item {
	return q.items
}

// Ack records that an item left the queue.
func (q *InMemoryQueue) Ack(it Item) { //nolint:gocritic // hugeParam
	metrics.RecordQueueDequeue()
	metrics.RecordQueueProcessingLatency(float64(q.now().Sub(it.EnqueuedAt).Microseconds()) / 1000)
	q.observe()
}

// Len implements Queue.
func (q *InMemoryQueue) Len(context.Context) int {
	q.observe()
	return len(q.items)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity) * 100)
}

// Close stops accepting records and closes the dequeue channel once drained by consumers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
