package routing

import (
	"fmt"
	"strings"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
)

// Rule identifiers recorded in RouterDecision.RulesFired.
const (
	RuleExplicitSubstitution = "explicit_substitution"
	RulePlayerUnfit          = "player_unfit"
	RuleInjuryRiskHigh       = "injury_risk_high"
	RuleNoBallRiskHigh       = "no_ball_risk_high"
	RuleFatigueCritical      = "fatigue_critical"
	RuleExternalRiskScore    = "external_risk_score"
	RuleFatigueOrWorkload    = "fatigue_or_workload_signal"
	RuleExplicitFatigue      = "explicit_fatigue_request"
	RuleExplicitRisk         = "explicit_risk_request"
	RuleBowlingMode          = "bowling_mode_full_evaluation"
	RuleFullMode             = "full_mode_requested"
	RuleRequestedIntent      = "requested_intent"
	RuleDeathPhase           = "death_phase"
	RuleScoringRateGap       = "scoring_rate_gap"
	RulePowerplayAttack      = "powerplay_attack_window"
	RuleDefaultTactical      = "default_tactical"
	RuleFallbackRouting      = "fallback_routing_used"
	RuleRiskFloor            = "risk_floor_enforced"
)

// Thresholds read by the local rule table.
const (
	FatigueCritical   = 7.0
	FatigueElevated   = 5.8
	StrainElevated    = 5.0
	OversElevated     = 3.0
	RiskScoreCritical = 70.0
	RunRateGap        = 1.5
)

const (
	phaseDeath     = "death"
	phasePowerplay = "powerplay"
)

// evaluation accumulates rule hits while the table is walked.
type evaluation struct {
	agents   types.AgentSet
	rules    []string
	intent   types.Intent
	selected bool
}

func (e *evaluation) fire(rule string, agents ...types.Agent) {
	e.rules = append(e.rules, rule)
	if len(agents) > 0 {
		e.agents.Add(agents...)
		e.selected = true
	}
}

func (e *evaluation) setIntent(i types.Intent) {
	if e.intent == "" {
		e.intent = i
	}
}

// Local evaluates the deterministic rule table. Every applicable rule fires
// and the selections are OR-combined; tactical is always selected.
func Local(req model.NormalizedRequest) types.RouterDecision {
	t := req.Telemetry
	m := req.Match
	e := &evaluation{agents: types.AgentSet{}}

	switch {
	case isSubstitution(req):
		e.fire(RuleExplicitSubstitution, types.AgentTactical)
		e.setIntent(types.IntentInjuryPrevention)
	case anyRiskRule(req):
		if t.IsUnfit {
			e.fire(RulePlayerUnfit, types.AgentRisk)
		}
		if t.InjuryRisk == model.RiskHigh {
			e.fire(RuleInjuryRiskHigh, types.AgentRisk)
		}
		if t.NoBallRisk == model.RiskHigh {
			e.fire(RuleNoBallRiskHigh, types.AgentRisk)
		}
		if t.FatigueIndex >= FatigueCritical {
			e.fire(RuleFatigueCritical, types.AgentRisk)
		}
		if rs := req.Signals.RiskScore; rs != nil && *rs >= RiskScoreCritical {
			e.fire(RuleExternalRiskScore, types.AgentRisk)
		}
		e.setIntent(types.IntentInjuryPrevention)
	case t.FatigueIndex >= FatigueElevated || t.StrainIndex >= StrainElevated || t.OversBowled >= OversElevated:
		e.fire(RuleFatigueOrWorkload, types.AgentFatigue)
		e.setIntent(types.IntentInjuryPrevention)
	}

	switch req.Mode {
	case model.ModeFatigue:
		e.fire(RuleExplicitFatigue, types.AgentFatigue)
		e.setIntent(types.IntentInjuryPrevention)
	case model.ModeRisk:
		e.fire(RuleExplicitRisk, types.AgentRisk)
		e.setIntent(types.IntentInjuryPrevention)
	}

	if m.TeamMode == model.TeamModeBowling {
		e.fire(RuleBowlingMode, types.AgentFatigue, types.AgentRisk)
	}

	if req.Mode == model.ModeFull {
		e.fire(RuleFullMode, types.AllAgents...)
	}

	if e.intent == "" {
		if i, ok := requestedIntent(req); ok {
			e.rules = append(e.rules, RuleRequestedIntent)
			e.setIntent(i)
		}
	}

	if e.intent == "" {
		contextRules(e, m)
	}

	if !e.selected {
		e.fire(RuleDefaultTactical)
	}
	e.setIntent(types.IntentGeneral)
	e.agents.Add(types.AgentTactical)

	d := types.RouterDecision{
		Intent:         e.intent,
		SelectedAgents: e.agents.Sorted(),
		RulesFired:     e.rules,
		InputsUsed:     inputsUsed(req),
		Source:         types.SourceLocal,
	}
	d.Rationale = rationale(d)
	return d
}

func isSubstitution(req model.NormalizedRequest) bool {
	if req.Mode == model.ModeSubstitution {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(req.RequestedIntent), string(model.ModeSubstitution))
}

func anyRiskRule(req model.NormalizedRequest) bool {
	t := req.Telemetry
	if t.IsUnfit || t.InjuryRisk == model.RiskHigh || t.NoBallRisk == model.RiskHigh || t.FatigueIndex >= FatigueCritical {
		return true
	}
	rs := req.Signals.RiskScore
	return rs != nil && *rs >= RiskScoreCritical
}

// requestedIntent honours an explicit caller intent, then a non-auto mode.
func requestedIntent(req model.NormalizedRequest) (types.Intent, bool) {
	if i, ok := types.ParseIntent(req.RequestedIntent); ok {
		return i, true
	}
	if req.Mode == model.ModeAuto {
		return "", false
	}
	return types.ParseIntent(string(req.Mode))
}

func contextRules(e *evaluation, m model.MatchContext) {
	if m.Phase == phaseDeath {
		e.fire(RuleDeathPhase)
		e.setIntent(types.IntentPressureControl)
	}
	if m.RequiredRunRate > 0 && m.RequiredRunRate-m.CurrentRunRate >= RunRateGap {
		e.fire(RuleScoringRateGap)
		e.setIntent(types.IntentPressureControl)
	}
	if m.Phase == phasePowerplay {
		e.fire(RulePowerplayAttack)
		e.setIntent(types.IntentTacticalAttack)
	}
}

// inputsUsed records every value the rule table reads.
func inputsUsed(req model.NormalizedRequest) map[string]any {
	t := req.Telemetry
	m := req.Match
	in := map[string]any{
		"mode":            string(req.Mode),
		"isUnfit":         t.IsUnfit,
		"injuryRisk":      string(t.InjuryRisk),
		"noBallRisk":      string(t.NoBallRisk),
		"fatigueIndex":    t.FatigueIndex,
		"strainIndex":     t.StrainIndex,
		"oversBowled":     t.OversBowled,
		"teamMode":        string(m.TeamMode),
		"phase":           m.Phase,
		"requiredRunRate": m.RequiredRunRate,
		"currentRunRate":  m.CurrentRunRate,
	}
	if req.RequestedIntent != "" {
		in["requestedIntent"] = req.RequestedIntent
	}
	if rs := req.Signals.RiskScore; rs != nil {
		in["riskScore"] = *rs
	}
	return in
}

func rationale(d types.RouterDecision) string {
	agents := make([]string, len(d.SelectedAgents))
	for i, a := range d.SelectedAgents {
		agents[i] = string(a)
	}
	return fmt.Sprintf("intent %s from rules [%s]; consulting %s",
		d.Intent, strings.Join(d.RulesFired, ", "), strings.Join(agents, ", "))
}
