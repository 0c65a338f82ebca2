// Package worker persists queued audit records.
package worker

import (
	"github.com/okian/overcall/internal/domain/dedupe"
	"github.com/okian/overcall/pkg/logger"
)

// Option applies a configuration option to an AuditWorker.
type Option func(*AuditWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *AuditWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *AuditWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDeduper skips records whose request id was already accepted.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *AuditWorker) {
		w.deduper = d
	}
}
