package safety

import (
	"strings"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
)

// Injury rule thresholds.
const (
	overloadFatigue       = 7.0
	overloadStrain        = 6.0
	noBallFatigue         = 6.0
	genericFatigue        = 6.0
	spinStrain            = 6.0
	highAcuteWorkload     = 30.0
	highAcuteChronicRatio = 1.5
	lowRecoveryScore      = 40.0
	oneDayOversThreshold  = 7.0
	shortOversThreshold   = 4.0
	weeksPerChronicWindow = 4.0
)

type injuryEntry struct {
	kind  string
	level model.RiskLevel
}

type injuryRule struct {
	id      string
	applies func(t model.Telemetry, format string) bool
	adds    []injuryEntry
}

// injuryRules is evaluated in order; earlier entries win on duplicate types.
var injuryRules = []injuryRule{
	{
		id: "fatigue_strain_overload",
		applies: func(t model.Telemetry, _ string) bool {
			return t.FatigueIndex >= overloadFatigue && t.StrainIndex >= overloadStrain
		},
		adds: []injuryEntry{
			{"hamstring strain", model.RiskHigh},
			{"calf strain", model.RiskHigh},
			{"general soft-tissue strain", model.RiskMedium},
		},
	},
	{
		id: "workload_recovery_deficit",
		applies: func(t model.Telemetry, _ string) bool {
			return highWorkload(t.Baseline) && t.Baseline.RecoveryScore < lowRecoveryScore
		},
		adds: []injuryEntry{
			{"overuse injury", model.RiskHigh},
			{"lower-back stress", model.RiskMedium},
			{"tendonitis risk", model.RiskMedium},
		},
	},
	{
		id: "no_ball_fatigue_stress",
		applies: func(t model.Telemetry, _ string) bool {
			return t.NoBallRisk == model.RiskHigh && t.FatigueIndex >= noBallFatigue
		},
		adds: []injuryEntry{
			{"ankle/knee stress", model.RiskMedium},
			{"shoulder overload", model.RiskMedium},
		},
	},
	{
		id: "pace_overs_load",
		applies: func(t model.Telemetry, format string) bool {
			return model.IsPace(t.Role) && t.OversBowled >= oversThreshold(format)
		},
		adds: []injuryEntry{
			{"lumbar stress", model.RiskHigh},
			{"side strain", model.RiskMedium},
			{"shoulder impingement", model.RiskMedium},
		},
	},
	{
		id: "spin_overs_strain",
		applies: func(t model.Telemetry, format string) bool {
			return model.IsSpin(t.Role) && t.OversBowled >= oversThreshold(format) && t.StrainIndex >= spinStrain
		},
		adds: []injuryEntry{
			{"finger/wrist strain", model.RiskMedium},
			{"shoulder overuse", model.RiskMedium},
		},
	},
}

const genericRule = "elevated_risk_generic"

// InferInjuries runs the rule battery against the active player's telemetry.
// The result is a rule trace, not a prediction: each entry names the rule that
// produced it, types are unique case-insensitively, and identical input always
// yields identical output.
func InferInjuries(t model.Telemetry, format string) []types.InjuryRisk {
	out := make([]types.InjuryRisk, 0, 4)
	seen := make(map[string]struct{})
	add := func(rule string, e injuryEntry) {
		key := strings.ToLower(e.kind)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, types.InjuryRisk{Type: e.kind, Level: e.level, Rule: rule})
	}

	fired := false
	for _, r := range injuryRules {
		if !r.applies(t, format) {
			continue
		}
		fired = true
		for _, e := range r.adds {
			add(r.id, e)
		}
	}

	if !fired && (t.InjuryRisk == model.RiskHigh || t.FatigueIndex >= genericFatigue) {
		add(genericRule, injuryEntry{"general soft-tissue strain", model.RiskMedium})
	}
	return out
}

// highWorkload is true for a heavy acute week or an acute:chronic spike.
func highWorkload(b model.Baseline) bool {
	if b.Workload7d >= highAcuteWorkload {
		return true
	}
	if b.Workload28d <= 0 {
		return false
	}
	return b.Workload7d/(b.Workload28d/weeksPerChronicWindow) >= highAcuteChronicRatio
}

// oversThreshold is the high-overs mark: 7 in one-day cricket, 4 otherwise.
func oversThreshold(format string) float64 {
	if IsOneDay(format) {
		return oneDayOversThreshold
	}
	return shortOversThreshold
}

// IsOneDay reports whether a format token names a 50-over match.
func IsOneDay(format string) bool {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "odi", "one-day", "one day", "oneday", "50", "50-over", "50 over", "list a", "list-a":
		return true
	}
	return false
}
