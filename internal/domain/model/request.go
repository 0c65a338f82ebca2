package model

// Baseline defaults applied when neither the request nor the store supplies a value.
const (
	DefaultSleepHours    = 6.0
	DefaultRecoveryScore = 45.0
	DefaultFatigueLimit  = 6.0
)

// Baseline source tags.
const (
	BaselineFromRequest = "request"
	BaselineFromStore   = "store"
	BaselineDefault     = "default"
)

// Baseline holds pre-match or historical reference values for a player.
type Baseline struct {
	SleepHours      float64 `json:"sleepHours"`
	RecoveryScore   float64 `json:"recoveryScore"`
	RecoveryMinutes float64 `json:"recoveryMinutes"`
	Workload7d      float64 `json:"workload7d"`
	Workload28d     float64 `json:"workload28d"`
	FatigueLimit    float64 `json:"fatigueLimit"`

	// Provided is true when at least one field came from the request payload.
	Provided bool   `json:"-"`
	Source   string `json:"source"`
}

// DefaultBaseline returns the fully defaulted baseline.
func DefaultBaseline() Baseline {
	return Baseline{
		SleepHours:    DefaultSleepHours,
		RecoveryScore: DefaultRecoveryScore,
		FatigueLimit:  DefaultFatigueLimit,
		Source:        BaselineDefault,
	}
}

// Telemetry is the live snapshot for the active player.
type Telemetry struct {
	PlayerID          string    `json:"playerId"`
	PlayerName        string    `json:"playerName"`
	Role              string    `json:"role"`
	FatigueIndex      float64   `json:"fatigueIndex"`
	StrainIndex       float64   `json:"strainIndex"`
	HeartRateRecovery string    `json:"heartRateRecovery"`
	OversBowled       float64   `json:"oversBowled"`
	ConsecutiveOvers  float64   `json:"consecutiveOvers"`
	InjuryRisk        RiskLevel `json:"injuryRisk"`
	NoBallRisk        RiskLevel `json:"noBallRisk"`
	IsUnfit           bool      `json:"isUnfit"`
	Baseline          Baseline  `json:"baseline"`
}

// MatchContext describes the state of the match.
type MatchContext struct {
	Phase           string   `json:"phase"`
	RequiredRunRate float64  `json:"requiredRunRate"`
	CurrentRunRate  float64  `json:"currentRunRate"`
	WicketsInHand   float64  `json:"wicketsInHand"`
	OversRemaining  float64  `json:"oversRemaining"`
	Format          string   `json:"format"`
	Intensity       string   `json:"intensity"`
	Target          *float64 `json:"target,omitempty"`
	Score           *float64 `json:"score,omitempty"`
	Over            *float64 `json:"over,omitempty"`
	Balls           *float64 `json:"balls,omitempty"`
	TeamMode        TeamMode `json:"teamMode"`
}

// RosterPlayer is a squad member supplied with the request. The core never mutates it.
type RosterPlayer struct {
	PlayerID     string    `json:"playerId"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CanBowl      bool      `json:"canBowl"`
	CanBat       bool      `json:"canBat"`
	IsUnfit      bool      `json:"isUnfit"`
	Baseline     Baseline  `json:"baseline"`
	FatigueIndex float64   `json:"fatigueIndex"`
	StrainIndex  float64   `json:"strainIndex"`
	OversBowled  float64   `json:"oversBowled"`
	InjuryRisk   RiskLevel `json:"injuryRisk"`
	NoBallRisk   RiskLevel `json:"noBallRisk"`
}

// Capability classifies the player from role hints and flags.
func (p RosterPlayer) Capability() Capability {
	return ClassifyRole(p.Role, p.CanBowl, p.CanBat)
}

// Signals carries externally computed overrides.
type Signals struct {
	RiskScore *float64 `json:"riskScore,omitempty"`
}

// Schema tags which payload generation a request arrived in.
type Schema string

// Schemas.
const (
	SchemaCurrent Schema = "current"
	SchemaLegacy  Schema = "legacy"
	SchemaEmpty   Schema = "empty"
)

// DefaultCandidateLimit bounds rankings and replacement lists.
const DefaultCandidateLimit = 3

// NormalizedRequest is the canonical request every downstream component sees.
type NormalizedRequest struct {
	RequestID       string         `json:"requestId"`
	Schema          Schema         `json:"schema"`
	Mode            RequestMode    `json:"mode"`
	RequestedIntent string         `json:"requestedIntent,omitempty"`
	Telemetry       Telemetry      `json:"telemetry"`
	Match           MatchContext   `json:"matchContext"`
	Roster          []RosterPlayer `json:"players"`
	Signals         Signals        `json:"signals"`
	CandidateLimit  int            `json:"candidateLimit"`

	// ExternalDecision is a precomputed router decision carried by the payload, if any.
	ExternalDecision map[string]any `json:"-"`
}

// EffectiveTeamMode resolves an unset team mode from the active player's capability.
func (r NormalizedRequest) EffectiveTeamMode() TeamMode {
	if r.Match.TeamMode != TeamModeUnset {
		return r.Match.TeamMode
	}
	c := ClassifyRole(r.Telemetry.Role, false, false)
	if c.Bat && !c.Bowl {
		return TeamModeBatting
	}
	return TeamModeBowling
}

// ActiveRosterEntry returns the roster entry for the active player, if present.
func (r NormalizedRequest) ActiveRosterEntry() (RosterPlayer, bool) {
	for _, p := range r.Roster {
		if p.PlayerID != "" && p.PlayerID == r.Telemetry.PlayerID {
			return p, true
		}
	}
	return RosterPlayer{}, false
}
