package evaluator

import (
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/normalize"
	"github.com/okian/overcall/internal/domain/types"
)

// ParseVerdict reads any subset of verdict fields from an untyped object.
// A nested "result" or "verdict" object is unwrapped first.
func ParseVerdict(obj map[string]any) types.Verdict {
	for _, k := range []string{"verdict", "result"} {
		if inner, ok := normalize.NonEmptyObject(obj[k]); ok {
			obj = inner
			break
		}
	}
	v := types.Verdict{
		Status:          normalize.Text(obj["status"]),
		Headline:        normalize.Text(obj["headline"]),
		Recommendation:  normalize.Text(obj["recommendation"]),
		Explanation:     normalize.Text(obj["explanation"]),
		ImmediateAction: text(obj, "immediateAction", "immediate_action", "action"),
		Severity:        model.ParseSeverity(text(obj, "severity", "riskLevel", "level")),
		Confidence:      confidence(obj["confidence"]),
		Replacement:     replacementRef(pick(obj, "replacement", "suggestedReplacement", "replacementCandidate")),
	}
	adj := pick(obj, "suggestedAdjustments", "suggested_adjustments", "adjustments")
	if s := normalize.Text(adj); s != "" {
		v.SuggestedAdjustments = []string{s}
	}
	for _, a := range normalize.List(adj) {
		if s := normalize.Text(a); s != "" {
			v.SuggestedAdjustments = append(v.SuggestedAdjustments, s)
		}
	}
	return v
}

// confidence accepts a 0..1 fraction or a 0..100 percentage.
func confidence(v any) *float64 {
	f, ok := normalize.Number(v)
	if !ok {
		return nil
	}
	if f > 1 {
		f /= 100
	}
	f = normalize.Clamp(f, 0, 1)
	return &f
}

func replacementRef(v any) types.ReplacementRef {
	if s := normalize.Text(v); s != "" {
		return types.ReplacementRef{Name: s}
	}
	obj := normalize.Object(v)
	return types.ReplacementRef{
		PlayerID: text(obj, "playerId", "player_id", "id"),
		Name:     text(obj, "name", "playerName"),
	}
}

func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func text(obj map[string]any, keys ...string) string {
	return normalize.Text(pick(obj, keys...))
}
