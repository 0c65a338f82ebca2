package service

import (
	"time"

	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/domain/fanout"
	"github.com/okian/overcall/internal/domain/routing"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the baseline and audit store. The service closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithEvaluator registers the client for one agent.
func WithEvaluator(agent types.Agent, ev fanout.Evaluator) Option {
	return func(s *Service) {
		if ev != nil {
			s.evaluators[agent] = ev
		}
	}
}

// WithEvaluatorTimeout bounds each evaluator call.
func WithEvaluatorTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.evaluatorTimeout = d
		}
	}
}

// WithRemoteRouter consults an external routing service before the local rules.
func WithRemoteRouter(r routing.RemoteRouter) Option {
	return func(s *Service) { s.remote = r }
}

// WithRouterTimeout bounds the remote routing call.
func WithRouterTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.routerTimeout = d
		}
	}
}

// WithBaselineTimeout bounds the baseline store lookup.
func WithBaselineTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.baselineTimeout = d
		}
	}
}

// WithMaxCandidates caps the ranking and replacement lists a request may ask for.
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithAuditQueueSize sets the capacity of the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of audit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets how many audited request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces the time source used for timing and audit records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
