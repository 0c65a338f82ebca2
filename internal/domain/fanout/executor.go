// Package fanout invokes the selected evaluators concurrently. Each call runs
// under its own timeout and its failure never affects the other calls.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/overcall/internal/domain/types"
)

// DefaultTimeout is the budget of a single evaluator call.
const DefaultTimeout = 12 * time.Second

// MaxMessageRunes caps sanitized error messages.
const MaxMessageRunes = 200

// Evaluator is a specialist that returns a verdict for one request.
type Evaluator interface {
	Evaluate(ctx context.Context, req types.EvaluatorRequest) (types.Verdict, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, req types.EvaluatorRequest) (types.Verdict, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, req types.EvaluatorRequest) (types.Verdict, error) {
	return f(ctx, req)
}

// Result holds one outcome per invoked agent.
type Result struct {
	Outcomes  map[types.Agent]types.EvaluatorOutcome
	Errors    []types.AgentError
	ElapsedMs int64
}

// Verdict returns the agent's verdict when its call succeeded.
func (r Result) Verdict(a types.Agent) (*types.Verdict, bool) {
	o, ok := r.Outcomes[a]
	if !ok || !o.Present || o.Verdict == nil {
		return nil, false
	}
	return o.Verdict, true
}

// Executor dispatches evaluator calls.
type Executor struct {
	evaluators map[types.Agent]Evaluator
	timeout    time.Duration
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		evaluators: make(map[types.Agent]Evaluator),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configured reports whether a client is registered for the agent.
func (e *Executor) Configured(a types.Agent) bool {
	_, ok := e.evaluators[a]
	return ok
}

// Run calls every listed agent in parallel and waits for all of them.
// build produces the request body for each agent.
func (e *Executor) Run(ctx context.Context, agents []types.Agent, build func(types.Agent) types.EvaluatorRequest) Result {
	start := time.Now()
	outcomes := make([]types.EvaluatorOutcome, len(agents))

	// Goroutines always return nil so that one failure never cancels siblings.
	var g errgroup.Group
	for i, a := range agents {
		g.Go(func() error {
			outcomes[i] = e.call(ctx, a, build)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Outcomes:  make(map[types.Agent]types.EvaluatorOutcome, len(agents)),
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	for _, o := range outcomes {
		res.Outcomes[o.Agent] = o
		if !o.Present {
			res.Errors = append(res.Errors, types.AgentError{Agent: o.Agent, Message: o.Error})
		}
	}
	return res
}

type reply struct {
	verdict types.Verdict
	err     error
}

func (e *Executor) call(parent context.Context, a types.Agent, build func(types.Agent) types.EvaluatorRequest) types.EvaluatorOutcome {
	start := time.Now()
	out := types.EvaluatorOutcome{Agent: a}
	finish := func(err error) types.EvaluatorOutcome {
		out.ElapsedMs = time.Since(start).Milliseconds()
		if err != nil {
			out.Error = Sanitize(err.Error())
		}
		return out
	}

	ev, ok := e.evaluators[a]
	if !ok {
		return finish(ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		req := build(a)
		v, err := ev.Evaluate(ctx, req)
		done <- reply{verdict: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return finish(fmt.Errorf("%w after %s", ErrTimeout, e.timeout))
			}
			return finish(r.err)
		}
		v := r.verdict
		out.Present = true
		out.Verdict = &v
		return finish(nil)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return finish(fmt.Errorf("%w after %s", ErrTimeout, e.timeout))
		}
		return finish(ctx.Err())
	}
}

// Sanitize collapses whitespace and caps the message length.
func Sanitize(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if msg == "" {
		return "unknown error"
	}
	r := []rune(msg)
	if len(r) > MaxMessageRunes {
		r = r[:MaxMessageRunes]
	}
	return string(r)
}
