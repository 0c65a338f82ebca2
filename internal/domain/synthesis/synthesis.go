// Package synthesis merges whatever evaluator verdicts exist into one final decision.
package synthesis

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/replacement"
	"github.com/okian/overcall/internal/domain/types"
)

// Fixed directives.
const (
	ActionSubstitute      = "immediate substitution advised"
	ActionMonitor         = "continue and monitor"
	ActionRotate          = "rotate the bowler at the end of the over"
	ActionWorkloadMonitor = "continue with workload monitoring"
	ActionFallback        = "apply tactical control and reassess after one over"
	NoEligibleReplacement = "No eligible replacement available for current mode"
)

// DefaultTacticalConfidence applies when the tactical verdict carries none.
const DefaultTacticalConfidence = 0.7

const (
	fallbackBaseConfidence = 0.58
	fallbackStep           = 0.02
	fallbackMaxCandidates  = 3
)

var riskConfidence = map[model.Severity]float64{
	model.SeverityCritical: 0.55,
	model.SeverityHigh:     0.62,
	model.SeverityMedium:   0.72,
	model.SeverityLow:      0.78,
	model.SeverityUnknown:  0.66,
}

var fatigueConfidence = map[model.Severity]float64{
	model.SeverityCritical: 0.50,
	model.SeverityHigh:     0.56,
	model.SeverityMedium:   0.64,
	model.SeverityLow:      0.70,
	model.SeverityUnknown:  0.60,
}

// Input is everything the synthesizer reads. Verdicts holds successful calls only.
// Eligible is the untruncated replacement set; when nil, Safety.Replacements is used.
type Input struct {
	Request  model.NormalizedRequest
	Decision types.RouterDecision
	Verdicts map[types.Agent]*types.Verdict
	Safety   types.SafetyReport
	Eligible []types.Candidate
}

// Synthesize applies the fixed precedence tactical > risk > fatigue > rules.
// The result always carries an action and a confidence in [0,1].
func Synthesize(in Input) types.FinalDecision {
	var (
		d            types.FinalDecision
		substitution bool
		ok           bool
	)
	if v := in.Verdicts[types.AgentTactical]; v != nil {
		d, ok = fromTactical(v)
		substitution = ok && mentionsSubstitution(d.ImmediateAction)
	}
	if !ok {
		if v := in.Verdicts[types.AgentRisk]; v != nil {
			d, ok = fromRisk(v), true
			substitution = severity(v).Urgent()
		}
	}
	if !ok {
		if v := in.Verdicts[types.AgentFatigue]; v != nil {
			d, ok = fromFatigue(v), true
		}
	}
	if !ok {
		d = Fallback(in.Request, in.Safety)
	}
	if in.Request.Mode == model.ModeSubstitution {
		substitution = true
	}

	d = attachReplacement(d, in, substitution)
	d.SuggestedAdjustments = capAdjustments(d.SuggestedAdjustments)
	d.Confidence = round2(clamp01(d.Confidence))
	return d
}

func fromTactical(v *types.Verdict) (types.FinalDecision, bool) {
	action := firstText(v.ImmediateAction, v.Recommendation, v.Headline)
	if action == "" {
		return types.FinalDecision{}, false
	}
	conf := DefaultTacticalConfidence
	if v.Confidence != nil {
		conf = *v.Confidence
	}
	return types.FinalDecision{
		ImmediateAction:      action,
		SuggestedAdjustments: cleanList(v.SuggestedAdjustments),
		Confidence:           conf,
		Rationale:            firstText(v.Explanation, v.Headline, action),
		Source:               types.DecisionFromTactical,
	}, true
}

func fromRisk(v *types.Verdict) types.FinalDecision {
	sev := severity(v)
	action := ActionMonitor
	if sev.Urgent() {
		action = ActionSubstitute
	}
	return types.FinalDecision{
		ImmediateAction:      action,
		SuggestedAdjustments: derivedAdjustments(v),
		Confidence:           riskConfidence[sev],
		Rationale:            firstText(v.Explanation, v.Headline, fmt.Sprintf("risk evaluator reported %s severity", sev)),
		Source:               types.DecisionFromRisk,
	}
}

func fromFatigue(v *types.Verdict) types.FinalDecision {
	sev := severity(v)
	action := ActionWorkloadMonitor
	if sev.Urgent() {
		action = ActionRotate
	}
	return types.FinalDecision{
		ImmediateAction:      action,
		SuggestedAdjustments: derivedAdjustments(v),
		Confidence:           fatigueConfidence[sev],
		Rationale:            firstText(v.Explanation, v.Headline, fmt.Sprintf("fatigue evaluator reported %s severity", sev)),
		Source:               types.DecisionFromFatigue,
	}
}

// Fallback is the deterministic decision used when no evaluator answered.
func Fallback(req model.NormalizedRequest, safety types.SafetyReport) types.FinalDecision {
	n := len(safety.Replacements)
	if n > fallbackMaxCandidates {
		n = fallbackMaxCandidates
	}

	t := req.Telemetry
	var adj []string
	if limit := t.Baseline.FatigueLimit; limit > 0 && t.FatigueIndex >= limit {
		adj = append(adj, fmt.Sprintf("Fatigue %.1f is at or above the %.1f limit: keep the next spell to one over", t.FatigueIndex, limit))
	}
	if t.NoBallRisk == model.RiskHigh {
		adj = append(adj, "No-ball risk is high: reset the run-up before the next delivery")
	}
	if len(safety.Injuries) > 0 {
		top := safety.Injuries[0]
		adj = append(adj, fmt.Sprintf("Monitor for %s (%s)", top.Type, top.Level))
	}
	if n > 0 {
		c := safety.Replacements[0]
		adj = append(adj, fmt.Sprintf("Warm up %s as the safest option (score %.2f)", displayName(c), c.Score))
	}
	if len(adj) == 0 {
		adj = append(adj, "Review telemetry again at the end of the over")
	}

	return types.FinalDecision{
		ImmediateAction:      ActionFallback,
		SuggestedAdjustments: adj,
		Confidence:           fallbackBaseConfidence + fallbackStep*float64(n),
		Rationale:            "no evaluator verdict was available; decision derived from routing rules and roster safety ranking",
		Source:               types.DecisionFromRules,
	}
}

// attachReplacement surfaces a replacement only when it is in the eligible set.
func attachReplacement(d types.FinalDecision, in Input, substitution bool) types.FinalDecision {
	eligible := in.Safety.Replacements
	pool := in.Eligible
	if pool == nil {
		pool = eligible
	}
	if ref, ok := suggestedReplacement(in.Verdicts); ok {
		if c, found := replacement.Match(pool, ref); found {
			d.Replacement = &c
			return d
		}
		d.SuggestedAdjustments = appendNotice(d.SuggestedAdjustments, NoEligibleReplacement)
		return d
	}
	if !substitution {
		return d
	}
	if len(eligible) == 0 {
		d.SuggestedAdjustments = appendNotice(d.SuggestedAdjustments, NoEligibleReplacement)
		return d
	}
	c := eligible[0]
	d.Replacement = &c
	return d
}

func suggestedReplacement(verdicts map[types.Agent]*types.Verdict) (types.ReplacementRef, bool) {
	for _, a := range []types.Agent{types.AgentTactical, types.AgentRisk, types.AgentFatigue} {
		if v := verdicts[a]; v != nil && !v.Replacement.Empty() {
			return v.Replacement, true
		}
	}
	return types.ReplacementRef{}, false
}

// appendNotice adds the notice once, dropping trailing entries so it survives the cap.
func appendNotice(adj []string, notice string) []string {
	for _, a := range adj {
		if strings.EqualFold(a, notice) {
			return adj
		}
	}
	if len(adj) >= types.MaxAdjustments {
		adj = adj[:types.MaxAdjustments-1]
	}
	return append(adj, notice)
}

func capAdjustments(adj []string) []string {
	adj = cleanList(adj)
	if len(adj) > types.MaxAdjustments {
		adj = adj[:types.MaxAdjustments]
	}
	return adj
}

func derivedAdjustments(v *types.Verdict) []string {
	adj := cleanList(v.SuggestedAdjustments)
	if r := strings.TrimSpace(v.Recommendation); r != "" && !containsFold(adj, r) {
		adj = append([]string{r}, adj...)
	}
	return adj
}

func mentionsSubstitution(action string) bool {
	a := strings.ToLower(action)
	return strings.Contains(a, "substitut") || strings.Contains(a, "replace")
}

func severity(v *types.Verdict) model.Severity {
	if v.Severity == "" {
		return model.SeverityUnknown
	}
	return model.ParseSeverity(string(v.Severity))
}

func displayName(c types.Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return c.PlayerID
}

func firstText(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" && !containsFold(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
