package types

import "github.com/okian/overcall/internal/domain/model"

// EvaluatorRequest is the JSON body sent to a specialist evaluator.
type EvaluatorRequest struct {
	RequestID    string             `json:"requestId"`
	Agent        Agent              `json:"agent"`
	Intent       Intent             `json:"intent"`
	Telemetry    model.Telemetry    `json:"telemetry"`
	MatchContext model.MatchContext `json:"matchContext"`
	Injuries     []InjuryRisk       `json:"injuries,omitempty"`
	Ranking      []Candidate        `json:"ranking,omitempty"`
	Replacements []Candidate        `json:"replacements,omitempty"`
	Rationale    string             `json:"rationale,omitempty"`
}
