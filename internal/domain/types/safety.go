package types

import "github.com/okian/overcall/internal/domain/model"

// Breakdown exposes the components of a fitness score.
type Breakdown struct {
	Fatigue         float64 `json:"fatigue"`
	Sleep           float64 `json:"sleep"`
	Recovery        float64 `json:"recovery"`
	Risk            float64 `json:"risk"`
	WorkloadPenalty float64 `json:"workloadPenalty"`
	Total           float64 `json:"total"`
}

// Candidate is a ranked roster member.
type Candidate struct {
	Rank      int       `json:"rank"`
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
	Reason    string    `json:"reason,omitempty"`
}

// InjuryRisk is one entry of the injury-type rule trace.
type InjuryRisk struct {
	Type  string          `json:"type"`
	Level model.RiskLevel `json:"level"`
	Rule  string          `json:"rule"`
}

// SafetyReport bundles the roster-derived context for a request.
type SafetyReport struct {
	Mode                  model.TeamMode `json:"mode"`
	Ranking               []Candidate    `json:"ranking"`
	Injuries              []InjuryRisk   `json:"injuries"`
	Replacements          []Candidate    `json:"replacements"`
	NoEligibleReplacement bool           `json:"noEligibleReplacement"`
}
