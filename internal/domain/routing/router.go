// Package routing decides which specialist evaluators a request needs and
// records an auditable trace of the rules behind that choice.
package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/normalize"
	"github.com/okian/overcall/internal/domain/types"
)

// DefaultRemoteTimeout bounds one call to the remote router.
const DefaultRemoteTimeout = 3 * time.Second

// Proposal is an upstream routing answer before validation.
type Proposal struct {
	Intent         string
	SelectedAgents []string
	RulesFired     []string
	InputsUsed     map[string]any
	Rationale      string
}

// RemoteRouter is an optional routing service consulted before the local rules.
type RemoteRouter interface {
	Route(ctx context.Context, req model.NormalizedRequest) (Proposal, error)
}

// Result is a routing decision plus any fallbacks taken to reach it.
type Result struct {
	Decision types.RouterDecision
	Degraded []types.Degraded
}

// Router picks a decision from a precomputed proposal, the remote router or the local rules.
type Router struct {
	remote  RemoteRouter
	timeout time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithRemote sets the remote routing service.
func WithRemote(r RemoteRouter) Option {
	return func(rt *Router) { rt.remote = r }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(rt *Router) {
		if d > 0 {
			rt.timeout = d
		}
	}
}

// New creates a Router. Without a remote it only uses the local rules.
func New(opts ...Option) *Router {
	r := &Router{timeout: DefaultRemoteTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route never fails: any upstream problem yields the local decision marked as a fallback.
func (r *Router) Route(ctx context.Context, req model.NormalizedRequest) Result {
	if req.ExternalDecision != nil {
		d, err := Adopt(ProposalFromMap(req.ExternalDecision), types.SourcePrecomputed)
		if err == nil {
			return Result{Decision: riskFloor(req, d)}
		}
		return fallback(req, fmt.Sprintf("precomputed decision rejected: %v", err))
	}

	if r.remote == nil {
		return Result{Decision: Local(req)}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p, err := r.remote.Route(cctx, req)
	if err != nil {
		return fallback(req, fmt.Sprintf("remote router failed: %v", err))
	}
	d, err := Adopt(p, types.SourceExternal)
	if err != nil {
		return fallback(req, fmt.Sprintf("remote router answer rejected: %v", err))
	}
	return Result{Decision: riskFloor(req, d)}
}

// riskFloor adds the risk evaluator to an adopted decision that omits it
// while a hard risk signal is present.
func riskFloor(req model.NormalizedRequest, d types.RouterDecision) types.RouterDecision {
	if !anyRiskRule(req) || d.Selects(types.AgentRisk) {
		return d
	}
	generated := d.Rationale == rationale(d)
	set := types.AgentSet{}
	for _, a := range d.SelectedAgents {
		set.Add(a)
	}
	set.Add(types.AgentRisk)
	d.SelectedAgents = set.Sorted()
	d.RulesFired = append(d.RulesFired, RuleRiskFloor)
	if generated {
		d.Rationale = rationale(d)
	}
	return d
}

func fallback(req model.NormalizedRequest, reason string) Result {
	d := Local(req)
	d.FallbackUsed = true
	d.FallbackReason = reason
	d.RulesFired = append(d.RulesFired, RuleFallbackRouting)
	return Result{
		Decision: d,
		Degraded: []types.Degraded{{Layer: types.LayerRouter, Reason: reason}},
	}
}

// Adopt validates an upstream proposal. Unknown agent names are dropped, at
// least one known agent is required, and tactical is always added.
func Adopt(p Proposal, source string) (types.RouterDecision, error) {
	set := types.AgentSet{}
	for _, name := range p.SelectedAgents {
		if a, ok := types.ParseAgent(name); ok {
			set.Add(a)
		}
	}
	if len(set) == 0 {
		return types.RouterDecision{}, ErrNoAgents
	}

	intent := types.IntentGeneral
	if strings.TrimSpace(p.Intent) != "" {
		i, ok := types.ParseIntent(p.Intent)
		if !ok {
			return types.RouterDecision{}, fmt.Errorf("%w: %q", ErrUnknownIntent, p.Intent)
		}
		intent = i
	}
	set.Add(types.AgentTactical)

	rules := make([]string, 0, len(p.RulesFired))
	for _, r := range p.RulesFired {
		if r = strings.TrimSpace(r); r != "" {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		rules = append(rules, source+"_router")
	}
	inputs := p.InputsUsed
	if inputs == nil {
		inputs = map[string]any{}
	}

	d := types.RouterDecision{
		Intent:         intent,
		SelectedAgents: set.Sorted(),
		RulesFired:     rules,
		InputsUsed:     inputs,
		Rationale:      strings.TrimSpace(p.Rationale),
		Source:         source,
	}
	if d.Rationale == "" {
		d.Rationale = rationale(d)
	}
	return d, nil
}

// ProposalFromMap reads a proposal from an untyped JSON object.
func ProposalFromMap(m map[string]any) Proposal {
	p := Proposal{
		Intent:     normalize.Text(m["intent"]),
		Rationale:  normalize.Text(m["rationale"]),
		InputsUsed: normalize.Object(m["inputsUsed"]),
	}
	agents := m["selectedAgents"]
	if agents == nil {
		agents = m["agents"]
	}
	for _, v := range normalize.List(agents) {
		if s := normalize.Text(v); s != "" {
			p.SelectedAgents = append(p.SelectedAgents, s)
		}
	}
	for _, v := range normalize.List(m["rulesFired"]) {
		if s := normalize.Text(v); s != "" {
			p.RulesFired = append(p.RulesFired, s)
		}
	}
	return p
}
