// Package worker persists queued audit records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/overcall/internal/adapters/mq/queue"
	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/domain/dedupe"
	"github.com/okian/overcall/pkg/logger"
	"github.com/okian/overcall/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 10 * time.Second
)

// Saver persists one audit record.
type Saver interface {
	SaveDecision(ctx context.Context, rec repository.AuditRecord) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

type acker interface {
	Ack(it queue.Item)
}

// AuditWorker drains the queue into a Saver.
type AuditWorker struct {
	queue   Queue
	saver   Saver
	deduper dedupe.Deduper
	name    string
	active  *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewAuditWorker creates a worker with configuration options.
func NewAuditWorker(q Queue, saver Saver, opts ...Option) *AuditWorker {
	w := &AuditWorker{
		queue:    q,
		saver:    saver,
		name:     "audit-worker",
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes records until the queue closes, ctx ends or Shutdown is called.
// Records still queued when the queue closes are drained first.
func (w *AuditWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if a, ok := w.queue.(acker); ok {
				a.Ack(it)
			}
			if err := w.Process(ctx, it.Record); err != nil {
				w.logger.Error(ctx, "error persisting audit record",
					logger.String("requestId", it.Record.RequestID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining.
func (w *AuditWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process persists a single record. Duplicates are skipped without error.
func (w *AuditWorker) Process(ctx context.Context, rec repository.AuditRecord) error { //nolint:gocritic // hugeParam
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if w.deduper != nil && w.deduper.SeenAndRecord(ctx, rec.RequestID) {
		metrics.RecordAuditDuplicate()
		w.logger.Debug(ctx, "duplicate audit record skipped", logger.String("requestId", rec.RequestID))
		return nil
	}

	err := w.saver.SaveDecision(ctx, rec)
	switch {
	case err == nil:
		metrics.RecordAuditPersisted()
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		metrics.RecordAuditDuplicate()
		return nil
	default:
		if w.deduper != nil {
			w.deduper.Forget(ctx, rec.RequestID)
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "persist_error")
		metrics.RecordErrorByType("persist_error", "high")
		return fmt.Errorf("persist audit record %s: %w", rec.RequestID, err)
	}
}

// Pool manages multiple audit workers sharing one queue.
type Pool struct {
	workers []*AuditWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below 1 uses the default.
func NewPool(count int, q Queue, saver Saver, opts ...Option) *Pool {
	if count < 1 {
		count = defaultWorkerCount
	}
	active := &atomic.Int64{}
	p := &Pool{workers: make([]*AuditWorker, count), queue: q}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewAuditWorker(q, saver, wopts...)
		w.active = active
		p.workers[i] = w
	}
	p.logger = p.workers[0].logger
	metrics.UpdateWorkerCount(count)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
