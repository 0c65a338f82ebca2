package model

import "strings"

// Role hint tables. Matching is a case-insensitive substring test.
var (
	BowlingHints    = []string{"bowl", "pace", "seam", "spin", "fast", "swing", "quick", "medium", "off-break", "leg-break", "orthodox", "wrist"}
	BattingHints    = []string{"bat", "opener", "keeper", "top-order", "top order", "middle-order", "middle order", "finisher", "anchor"}
	AllRounderHints = []string{"all-rounder", "allrounder", "all rounder", "all-round"}
	PaceHints       = []string{"pace", "fast", "seam", "swing", "quick", "medium"}
	SpinHints       = []string{"spin", "off-break", "leg-break", "orthodox", "wrist", "googly"}
)

// Capability is what a player can be used for.
type Capability struct {
	Bowl bool
	Bat  bool
}

// Supports reports whether the capability covers a team mode.
// An unset mode is treated as bowling.
func (c Capability) Supports(mode TeamMode) bool {
	if mode == TeamModeBatting {
		return c.Bat
	}
	return c.Bowl
}

// ClassifyRole returns the capability implied by a free-text role and explicit flags.
func ClassifyRole(role string, canBowl, canBat bool) Capability {
	c := Capability{Bowl: canBowl, Bat: canBat}
	if matchesAny(role, AllRounderHints) {
		c.Bowl, c.Bat = true, true
		return c
	}
	if matchesAny(role, BowlingHints) {
		c.Bowl = true
	}
	if matchesAny(role, BattingHints) {
		c.Bat = true
	}
	return c
}

// IsPace reports whether a role describes a pace bowler.
func IsPace(role string) bool { return matchesAny(role, PaceHints) }

// IsSpin reports whether a role describes a spin bowler.
func IsSpin(role string) bool { return matchesAny(role, SpinHints) }

func matchesAny(role string, hints []string) bool {
	r := strings.ToLower(role)
	if r == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(r, h) {
			return true
		}
	}
	return false
}
