// Package safety ranks roster members by fitness to continue and infers
// plausible injury types from telemetry thresholds.
package safety

import (
	"math"
	"sort"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
)

// Scoring constants.
const (
	maxIndex             = 10.0
	battingFatigueFactor = 0.95
	sleepPivot           = 6.0
	sleepWeight          = 0.35
	maxSleepHours        = 12.0
	recoveryPivot        = 40.0
	recoveryDivisor      = 20.0
	maxRecoveryScore     = 100.0
	workload7dWeight     = 0.08
	workload28dWeight    = 0.02
	oversBowledWeight    = 0.3
	highIntensityFactor  = 1.2
	highIntensity        = "high"
)

var riskBonus = map[model.RiskLevel]float64{
	model.RiskLow:     2,
	model.RiskMedium:  0.8,
	model.RiskHigh:    -2.2,
	model.RiskUnknown: 0,
}

// Score computes the fitness breakdown for one player in a team mode.
// An unset mode scores as bowling.
func Score(p model.RosterPlayer, mode model.TeamMode, intensity string) types.Breakdown {
	bowling := mode != model.TeamModeBatting

	fatigue := clamp(p.FatigueIndex, 0, maxIndex)
	b := types.Breakdown{Fatigue: maxIndex - fatigue}
	if !bowling {
		b.Fatigue = maxIndex - fatigue*battingFatigueFactor
	}
	b.Sleep = (clamp(p.Baseline.SleepHours, 0, maxSleepHours) - sleepPivot) * sleepWeight
	b.Recovery = (clamp(p.Baseline.RecoveryScore, 0, maxRecoveryScore) - recoveryPivot) / recoveryDivisor
	b.Risk = riskBonus[p.InjuryRisk]

	penalty := p.Baseline.Workload7d*workload7dWeight + p.Baseline.Workload28d*workload28dWeight
	if bowling {
		penalty += p.OversBowled * oversBowledWeight
	}
	if intensity == highIntensity {
		penalty *= highIntensityFactor
	}
	b.WorkloadPenalty = round2(penalty)

	b.Fatigue = round2(b.Fatigue)
	b.Sleep = round2(b.Sleep)
	b.Recovery = round2(b.Recovery)
	b.Total = round2(b.Fatigue + b.Sleep + b.Recovery + b.Risk - b.WorkloadPenalty)
	return b
}

// Rank scores every roster member capable of the mode, best first. When no
// member is capable the whole roster is ranked instead, so a non-empty roster
// always yields a non-empty ranking. Ties keep roster order.
func Rank(roster []model.RosterPlayer, mode model.TeamMode, intensity string, limit int) []types.Candidate {
	if limit < 1 {
		limit = model.DefaultCandidateLimit
	}

	pool := make([]model.RosterPlayer, 0, len(roster))
	for _, p := range roster {
		if p.Capability().Supports(mode) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = roster
	}

	out := make([]types.Candidate, 0, len(pool))
	for _, p := range pool {
		b := Score(p, mode, intensity)
		out = append(out, types.Candidate{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      p.Role,
			Score:     b.Total,
			Breakdown: b,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
