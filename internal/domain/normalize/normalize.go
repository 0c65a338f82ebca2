package normalize

import (
	"math"
	"strings"

	"github.com/okian/overcall/internal/domain/model"
)

const (
	unbounded        = math.MaxFloat64
	maxIndex         = 10.0
	maxSleepHours    = 12.0
	maxRecoveryScore = 100.0
	maxWickets       = 10.0
	maxOversLeft     = 50.0
	maxRiskScore     = 100.0
	maxCandidates    = 11.0

	defaultPhase             = "middle"
	defaultFormat            = "T20"
	defaultIntensity         = "medium"
	defaultHeartRateRecovery = "unknown"
	defaultWicketsInHand     = 10.0
	defaultOversRemaining    = 10.0
)

// Normalize resolves a payload of either schema generation into the canonical request.
//
// A payload is current-schema when both "telemetry" and "matchContext" are
// populated objects. Anything else is read from the legacy locations
// ("player", "match", "match.tactical"), with the current keys as a fallback
// so that partially migrated callers still normalize to the same values.
func Normalize(payload map[string]any) model.NormalizedRequest {
	tele, hasTele := NonEmptyObject(payload["telemetry"])
	mc, hasMatch := NonEmptyObject(payload["matchContext"])

	var (
		schema   model.Schema
		teleSrc  []map[string]any
		matchSrc []map[string]any
	)
	match := Object(payload["match"])
	if hasTele && hasMatch {
		schema = model.SchemaCurrent
		teleSrc = []map[string]any{tele}
		matchSrc = []map[string]any{mc}
	} else {
		player := Object(payload["player"])
		teleSrc = []map[string]any{player, Object(payload["telemetry"])}
		matchSrc = []map[string]any{match, Object(payload["matchContext"]), Object(match["tactical"])}
		schema = model.SchemaLegacy
		if !anyPopulated(teleSrc) && !anyPopulated(matchSrc) {
			schema = model.SchemaEmpty
		}
	}

	req := model.NormalizedRequest{
		RequestID:       Text(first(payload, "requestId", "request_id")),
		Schema:          schema,
		Mode:            model.ParseRequestMode(Text(first(payload, "mode", "type", "requestMode"))),
		RequestedIntent: strings.ToLower(Text(first(payload, "intent", "requestedIntent"))),
		Telemetry:       telemetry(teleSrc),
		Match:           matchContext(append(matchSrc, payload)),
		Roster:          roster(payload, match),
		CandidateLimit:  int(Float(first(payload, "candidateLimit", "limit"), model.DefaultCandidateLimit, 1, maxCandidates)),
	}

	signals := Object(payload["signals"])
	req.Signals.RiskScore = OptionalFloat(firstOf(append([]map[string]any{signals}, teleSrc...), "riskScore", "risk_score"), 0, maxRiskScore)

	if ext, ok := NonEmptyObject(payload["routerDecision"]); ok {
		req.ExternalDecision = ext
	}
	return req
}

func anyPopulated(objs []map[string]any) bool {
	for _, m := range objs {
		if len(m) > 0 {
			return true
		}
	}
	return false
}

func telemetry(src []map[string]any) model.Telemetry {
	t := model.Telemetry{
		PlayerID:          Text(firstOf(src, "playerId", "player_id", "id")),
		PlayerName:        Text(firstOf(src, "playerName", "name")),
		Role:              Text(firstOf(src, "role")),
		FatigueIndex:      Float(firstOf(src, "fatigueIndex", "fatigue"), 0, 0, maxIndex),
		StrainIndex:       Float(firstOf(src, "strainIndex", "strain"), 0, 0, maxIndex),
		HeartRateRecovery: strings.ToLower(Text(firstOf(src, "heartRateRecovery", "hrRecovery"))),
		OversBowled:       Float(firstOf(src, "oversBowled", "overs"), 0, 0, unbounded),
		ConsecutiveOvers:  Float(firstOf(src, "consecutiveOvers", "spellOvers"), 0, 0, unbounded),
		InjuryRisk:        model.ParseRiskLevel(Text(firstOf(src, "injuryRisk", "injury_risk"))),
		NoBallRisk:        model.ParseRiskLevel(Text(firstOf(src, "noBallRisk", "noballRisk", "no_ball_risk"))),
		IsUnfit:           Bool(firstOf(src, "isUnfit", "unfit")),
	}
	if t.HeartRateRecovery == "" {
		t.HeartRateRecovery = defaultHeartRateRecovery
	}

	objs := make([]map[string]any, 0, 2*len(src))
	for _, m := range src {
		objs = append(objs, Object(m["baseline"]))
	}
	t.Baseline = baseline(append(objs, src...))
	return t
}

// Baseline reads a standalone baseline document, e.g. one stored for a player.
// Provided reports whether any field was present.
func Baseline(obj map[string]any) model.Baseline {
	return baseline([]map[string]any{obj})
}

// baseline reads baseline fields from objs in order; the request is marked as
// the source when any numeric field is present.
func baseline(objs []map[string]any) model.Baseline {
	b := model.DefaultBaseline()

	read := func(fallback, lo, hi float64, keys ...string) float64 {
		v := firstOf(objs, keys...)
		if _, ok := Number(v); ok {
			b.Provided = true
		}
		return Float(v, fallback, lo, hi)
	}
	b.SleepHours = read(model.DefaultSleepHours, 0, maxSleepHours, "sleepHours", "sleep")
	b.RecoveryScore = read(model.DefaultRecoveryScore, 0, maxRecoveryScore, "recoveryScore")
	b.RecoveryMinutes = read(0, 0, unbounded, "recoveryMinutes")
	b.Workload7d = read(0, 0, unbounded, "workload7d", "workload7", "acuteWorkload")
	b.Workload28d = read(0, 0, unbounded, "workload28d", "workload28", "chronicWorkload")
	b.FatigueLimit = read(model.DefaultFatigueLimit, 0, maxIndex, "fatigueLimit", "fatigueCeiling")

	if b.Provided {
		b.Source = model.BaselineFromRequest
	}
	return b
}

// phaseMarkers folds free-form phase labels such as "Death Overs" or
// "power-play" onto the canonical names, checked in order.
var phaseMarkers = []struct{ marker, phase string }{
	{"death", "death"},
	{"power", "powerplay"},
	{"middle", "middle"},
}

// phase lower-cases a phase label and maps known variants to their canonical name.
func phase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, pm := range phaseMarkers {
		if strings.Contains(s, pm.marker) {
			return pm.phase
		}
	}
	return s
}

func matchContext(src []map[string]any) model.MatchContext {
	m := model.MatchContext{
		Phase:           phase(Text(firstOf(src, "phase"))),
		RequiredRunRate: Float(firstOf(src, "requiredRunRate", "requiredRate", "rrr"), 0, 0, unbounded),
		CurrentRunRate:  Float(firstOf(src, "currentRunRate", "runRate", "crr"), 0, 0, unbounded),
		WicketsInHand:   Float(firstOf(src, "wicketsInHand", "wickets"), defaultWicketsInHand, 0, maxWickets),
		OversRemaining:  Float(firstOf(src, "oversRemaining", "oversLeft"), defaultOversRemaining, 0, maxOversLeft),
		Format:          Text(firstOf(src, "format")),
		Intensity:       strings.ToLower(Text(firstOf(src, "intensity"))),
		Target:          OptionalFloat(firstOf(src, "target"), 0, unbounded),
		Score:           OptionalFloat(firstOf(src, "score"), 0, unbounded),
		Over:            OptionalFloat(firstOf(src, "over"), 0, unbounded),
		Balls:           OptionalFloat(firstOf(src, "balls"), 0, unbounded),
		TeamMode:        model.ParseTeamMode(Text(firstOf(src, "teamMode", "team_mode"))),
	}
	if m.Phase == "" {
		m.Phase = defaultPhase
	}
	if m.Format == "" {
		m.Format = defaultFormat
	}
	if m.Intensity == "" {
		m.Intensity = defaultIntensity
	}
	return m
}

// roster takes the first populated list among the known roster locations.
func roster(payload, match map[string]any) []model.RosterPlayer {
	tactical := Object(match["tactical"])
	var items []any
	for _, l := range [][]any{
		List(payload["players"]),
		List(payload["roster"]),
		List(Object(payload["matchContext"])["players"]),
		List(match["roster"]),
		List(tactical["bench"]),
	} {
		if len(l) > 0 {
			items = l
			break
		}
	}

	out := make([]model.RosterPlayer, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		obj := Object(it)
		if len(obj) == 0 {
			continue
		}
		p := rosterPlayer(obj)
		if p.PlayerID == "" {
			continue
		}
		key := strings.ToLower(p.PlayerID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func rosterPlayer(obj map[string]any) model.RosterPlayer {
	live := []map[string]any{Object(obj["live"]), Object(obj["telemetry"]), obj}
	p := model.RosterPlayer{
		PlayerID:     Text(first(obj, "playerId", "player_id", "id")),
		Name:         Text(first(obj, "name", "playerName")),
		Role:         Text(first(obj, "role")),
		CanBowl:      Bool(first(obj, "canBowl")),
		CanBat:       Bool(first(obj, "canBat")),
		IsUnfit:      Bool(firstOf(live, "isUnfit", "unfit")),
		Baseline:     baseline([]map[string]any{Object(obj["baseline"]), obj}),
		FatigueIndex: Float(firstOf(live, "fatigueIndex", "fatigue"), 0, 0, maxIndex),
		StrainIndex:  Float(firstOf(live, "strainIndex", "strain"), 0, 0, maxIndex),
		OversBowled:  Float(firstOf(live, "oversBowled", "overs"), 0, 0, unbounded),
		InjuryRisk:   model.ParseRiskLevel(Text(firstOf(live, "injuryRisk", "injury_risk"))),
		NoBallRisk:   model.ParseRiskLevel(Text(firstOf(live, "noBallRisk", "noballRisk", "no_ball_risk"))),
	}
	if p.PlayerID == "" {
		p.PlayerID = p.Name
	}
	return p
}
