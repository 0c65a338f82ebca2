package fanout

import (
	"time"

	"github.com/okian/overcall/internal/domain/types"
)

// Option configures an Executor.
type Option func(*Executor)

// WithEvaluator registers the client for one agent.
func WithEvaluator(agent types.Agent, ev Evaluator) Option {
	return func(e *Executor) {
		if ev != nil {
			e.evaluators[agent] = ev
		}
	}
}

// WithTimeout sets the independent budget of each evaluator call.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}
