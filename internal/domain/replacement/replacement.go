// Package replacement selects roster members eligible to take over from the active player.
package replacement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/safety"
	"github.com/okian/overcall/internal/domain/types"
)

// Select returns up to limit replacements for the active player in the given
// mode, best first. Players that are the active player, flagged unfit, or not
// capable of the mode are excluded. Unlike safety.Rank there is no fallback
// pool: an empty, non-nil slice means no eligible replacement exists.
func Select(roster []model.RosterPlayer, activeID string, mode model.TeamMode, intensity string, limit int) []types.Candidate {
	if limit < 1 {
		limit = model.DefaultCandidateLimit
	}
	out := Eligible(roster, activeID, mode, intensity)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Eligible returns every eligible replacement, ranked best first. Select is
// its display prefix; evaluator suggestions are checked against the whole set.
func Eligible(roster []model.RosterPlayer, activeID string, mode model.TeamMode, intensity string) []types.Candidate {
	if mode == model.TeamModeUnset {
		mode = model.TeamModeBowling
	}

	out := make([]types.Candidate, 0, len(roster))
	for _, p := range roster {
		if isActive(p, activeID) || p.IsUnfit || !p.Capability().Supports(mode) {
			continue
		}
		b := safety.Score(p, mode, intensity)
		out = append(out, types.Candidate{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      p.Role,
			Score:     b.Total,
			Breakdown: b,
			Reason:    reason(p, mode),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Match finds the candidate an evaluator referred to, by id or name, ignoring case.
func Match(cands []types.Candidate, ref types.ReplacementRef) (types.Candidate, bool) {
	id := strings.TrimSpace(ref.PlayerID)
	name := strings.TrimSpace(ref.Name)
	for _, c := range cands {
		if id != "" && strings.EqualFold(c.PlayerID, id) {
			return c, true
		}
		if name != "" && (strings.EqualFold(c.Name, name) || strings.EqualFold(c.PlayerID, name)) {
			return c, true
		}
	}
	return types.Candidate{}, false
}

func isActive(p model.RosterPlayer, activeID string) bool {
	return activeID != "" && strings.EqualFold(p.PlayerID, activeID)
}

func reason(p model.RosterPlayer, mode model.TeamMode) string {
	if mode == model.TeamModeBatting {
		return fmt.Sprintf("fresh batting option: fatigue %.1f/10, injury risk %s", p.FatigueIndex, p.InjuryRisk)
	}
	return fmt.Sprintf("fresh bowling option: fatigue %.1f/10, %.0f overs bowled, injury risk %s",
		p.FatigueIndex, p.OversBowled, p.InjuryRisk)
}
