package types

import (
	"time"

	"github.com/okian/overcall/internal/domain/model"
)

// Routing sources.
const (
	SourceLocal       = "local"
	SourceExternal    = "external"
	SourcePrecomputed = "precomputed"
)

// RouterDecision is the auditable output of the router.
type RouterDecision struct {
	Intent         Intent         `json:"intent"`
	SelectedAgents []Agent        `json:"selectedAgents"`
	RulesFired     []string       `json:"rulesFired"`
	InputsUsed     map[string]any `json:"inputsUsed"`
	Rationale      string         `json:"rationale"`
	Source         string         `json:"source"`
	FallbackUsed   bool           `json:"fallbackUsed"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
}

// Selects reports whether the decision includes agent a.
func (d RouterDecision) Selects(a Agent) bool {
	for _, x := range d.SelectedAgents {
		if x == a {
			return true
		}
	}
	return false
}

// ReplacementRef is an evaluator's reference to a bench player.
type ReplacementRef struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Empty reports whether the reference names nobody.
func (r ReplacementRef) Empty() bool { return r.PlayerID == "" && r.Name == "" }

// Verdict is a structured evaluator answer. Every field is optional on the wire.
type Verdict struct {
	Status               string         `json:"status,omitempty"`
	Headline             string         `json:"headline,omitempty"`
	Recommendation       string         `json:"recommendation,omitempty"`
	Explanation          string         `json:"explanation,omitempty"`
	ImmediateAction      string         `json:"immediateAction,omitempty"`
	Severity             model.Severity `json:"severity"`
	Confidence           *float64       `json:"confidence,omitempty"`
	SuggestedAdjustments []string       `json:"suggestedAdjustments,omitempty"`
	Replacement          ReplacementRef `json:"replacement,omitempty"`
}

// EvaluatorOutcome is the per-agent result of one fan-out.
type EvaluatorOutcome struct {
	Agent     Agent    `json:"agent"`
	Present   bool     `json:"present"`
	Skipped   bool     `json:"skipped,omitempty"`
	Verdict   *Verdict `json:"verdict,omitempty"`
	ElapsedMs int64    `json:"elapsedMs"`
	Error     string   `json:"error,omitempty"`
}

// AgentError is a sanitized evaluator failure.
type AgentError struct {
	Agent   Agent  `json:"agent"`
	Message string `json:"message"`
}

// Final decision sources.
const (
	DecisionFromTactical = "tactical"
	DecisionFromRisk     = "risk"
	DecisionFromFatigue  = "fatigue"
	DecisionFromRules    = "rules_fallback"
)

// MaxAdjustments caps FinalDecision.SuggestedAdjustments.
const MaxAdjustments = 4

// FinalDecision is the single recommendation returned to the coach.
type FinalDecision struct {
	ImmediateAction      string     `json:"immediateAction"`
	SuggestedAdjustments []string   `json:"suggestedAdjustments"`
	Confidence           float64    `json:"confidence"`
	Rationale            string     `json:"rationale"`
	Source               string     `json:"source"`
	Replacement          *Candidate `json:"replacement,omitempty"`
}

// Degraded records one fallback taken while building a response.
type Degraded struct {
	Layer  string `json:"layer"`
	Reason string `json:"reason"`
}

// Degradation layers.
const (
	LayerRouter       = "router"
	LayerBaseline     = "baseline"
	LayerEvaluators   = "evaluators"
	LayerOrchestrator = "orchestrator"
)

// Timing captures latency metadata for a response.
type Timing struct {
	StartedAt  time.Time       `json:"startedAt"`
	TotalMs    int64           `json:"totalMs"`
	RoutingMs  int64           `json:"routingMs"`
	FanOutMs   int64           `json:"fanOutMs"`
	PerAgentMs map[Agent]int64 `json:"perAgentMs"`
}

// AdviceResponse is the caller-facing answer. It is always returned with a success status.
type AdviceResponse struct {
	RequestID      string                     `json:"requestId"`
	Schema         model.Schema               `json:"schema"`
	RouterDecision RouterDecision             `json:"routerDecision"`
	Outputs        map[Agent]EvaluatorOutcome `json:"outputs"`
	Safety         SafetyReport               `json:"safety"`
	FinalDecision  FinalDecision              `json:"finalDecision"`
	Errors         []AgentError               `json:"errors"`
	Degraded       []Degraded                 `json:"degraded"`
	Timing         Timing                     `json:"timing"`
}

// SafetyResponse is the standalone safety report for a payload, without evaluator calls.
type SafetyResponse struct {
	RequestID string       `json:"requestId"`
	Schema    model.Schema `json:"schema"`
	Safety    SafetyReport `json:"safety"`
	Degraded  []Degraded   `json:"degraded"`
}
