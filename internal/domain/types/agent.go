// Package types contains common types used across the application
package types

import (
	"sort"
	"strings"
)

// Agent names a specialist evaluator.
type Agent string

// Agents in canonical order.
const (
	AgentFatigue  Agent = "fatigue"
	AgentRisk     Agent = "risk"
	AgentTactical Agent = "tactical"
)

// AllAgents lists every agent in canonical order.
var AllAgents = []Agent{AgentFatigue, AgentRisk, AgentTactical}

// ParseAgent maps a name case-insensitively. ok is false for unknown names.
func ParseAgent(s string) (Agent, bool) {
	switch Agent(strings.ToLower(strings.TrimSpace(s))) {
	case AgentFatigue:
		return AgentFatigue, true
	case AgentRisk:
		return AgentRisk, true
	case AgentTactical:
		return AgentTactical, true
	}
	return "", false
}

func (a Agent) order() int {
	for i, x := range AllAgents {
		if x == a {
			return i
		}
	}
	return len(AllAgents)
}

// AgentSet is an accumulating set of agents.
type AgentSet map[Agent]struct{}

// Add inserts agents into the set.
func (s AgentSet) Add(agents ...Agent) {
	for _, a := range agents {
		s[a] = struct{}{}
	}
}

// Has reports membership.
func (s AgentSet) Has(a Agent) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the members in canonical order.
func (s AgentSet) Sorted() []Agent {
	out := make([]Agent, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order() < out[j].order() })
	return out
}

// Intent is the closed routing intent enumeration.
type Intent string

// Intents.
const (
	IntentInjuryPrevention Intent = "InjuryPrevention"
	IntentPressureControl  Intent = "PressureControl"
	IntentTacticalAttack   Intent = "TacticalAttack"
	IntentGeneral          Intent = "General"
)

// ParseIntent maps both the enum spellings and the legacy request vocabulary.
func ParseIntent(s string) (Intent, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "injuryprevention", "fatigue", "risk", "substitution", "injury":
		return IntentInjuryPrevention, true
	case "pressurecontrol", "pressure":
		return IntentPressureControl, true
	case "tacticalattack", "tactical", "attack":
		return IntentTacticalAttack, true
	case "general", "full", "auto":
		return IntentGeneral, true
	}
	return "", false
}
