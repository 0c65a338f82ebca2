// Package model contains domain models passed between layers.
package model

import "strings"

// RiskLevel is a normalized telemetry risk token.
type RiskLevel string

// Risk levels. Unknown tokens never collapse to LOW.
const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// ParseRiskLevel maps a token case-insensitively. CRITICAL aliases HIGH.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow
	case "MEDIUM", "MED", "MODERATE":
		return RiskMedium
	case "HIGH", "CRITICAL":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Severity is the verdict severity reported by an evaluator.
type Severity string

// Severities.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
	SeverityUnknown  Severity = "UNKNOWN"
)

// ParseSeverity maps a token case-insensitively; anything unrecognized is UNKNOWN.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM", "MED", "MODERATE":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	case "CRITICAL", "SEVERE":
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}

// Urgent reports whether the severity calls for immediate action.
func (s Severity) Urgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// TeamMode says whether the advised side is bowling or batting.
type TeamMode string

// Team modes. TeamModeUnset means the caller did not say.
const (
	TeamModeUnset   TeamMode = ""
	TeamModeBowling TeamMode = "BOWLING"
	TeamModeBatting TeamMode = "BATTING"
)

// ParseTeamMode maps a token case-insensitively.
func ParseTeamMode(s string) TeamMode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BOWLING", "BOWL", "FIELDING":
		return TeamModeBowling
	case "BATTING", "BAT":
		return TeamModeBatting
	default:
		return TeamModeUnset
	}
}

// RequestMode is the evaluation mode a caller asked for.
type RequestMode string

// Request modes. The legacy vocabulary (fatigue, risk, substitution) is kept as-is.
const (
	ModeAuto         RequestMode = "auto"
	ModeFull         RequestMode = "full"
	ModeFatigue      RequestMode = "fatigue"
	ModeRisk         RequestMode = "risk"
	ModeSubstitution RequestMode = "substitution"
	ModeTactical     RequestMode = "tactical"
)

// ParseRequestMode maps a token case-insensitively, defaulting to auto.
func ParseRequestMode(s string) RequestMode {
	switch RequestMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFull, "all":
		return ModeFull
	case ModeFatigue:
		return ModeFatigue
	case ModeRisk:
		return ModeRisk
	case ModeSubstitution, "sub", "replace":
		return ModeSubstitution
	case ModeTactical:
		return ModeTactical
	default:
		return ModeAuto
	}
}
