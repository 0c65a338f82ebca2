package replacement_test

import (
	"testing"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/replacement"
	"github.com/okian/overcall/internal/domain/safety"
	"github.com/okian/overcall/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func member(id, name, role string, fatigue float64) model.RosterPlayer {
	return model.RosterPlayer{
		PlayerID:     id,
		Name:         name,
		Role:         role,
		Baseline:     model.DefaultBaseline(),
		FatigueIndex: fatigue,
		InjuryRisk:   model.RiskLow,
	}
}

func TestSelect(t *testing.T) {
	Convey("Given a roster with bowlers, batters and the active player", t, func() {
		roster := []model.RosterPlayer{
			member("active", "Tired Quick", "Fast bowler", 8),
			member("s1", "Spinner", "Left-arm orthodox", 2),
			member("b1", "Opener", "Batter", 1),
			member("p1", "Seamer", "Medium pace", 4),
		}
		unfit := member("p2", "Injured", "Fast bowler", 0)
		unfit.IsUnfit = true
		roster = append(roster, unfit)

		Convey("When selecting bowling replacements", func() {
			got := replacement.Select(roster, "ACTIVE", model.TeamModeBowling, "medium", 3)

			Convey("Then the active and unfit players are excluded and the best comes first", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0].PlayerID, ShouldEqual, "s1")
				So(got[1].PlayerID, ShouldEqual, "p1")
				So(got[0].Reason, ShouldContainSubstring, "bowling option")
				So(got[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When selecting batting replacements", func() {
			got := replacement.Select(roster, "active", model.TeamModeBatting, "medium", 3)
			So(len(got), ShouldEqual, 1)
			So(got[0].PlayerID, ShouldEqual, "b1")
		})

		Convey("When the limit is smaller than the eligible pool", func() {
			So(len(replacement.Select(roster, "active", model.TeamModeBowling, "", 1)), ShouldEqual, 1)
		})
	})

	Convey("Given five players none of whom can bowl", t, func() {
		roster := []model.RosterPlayer{
			member("a", "Active", "Batter", 5),
			member("b", "B", "Opener", 1),
			member("c", "C", "Wicket-keeper", 1),
			member("d", "D", "Top-order batter", 2),
			member("e", "E", "Finisher", 3),
		}

		Convey("Then the selector reports no eligible replacement", func() {
			got := replacement.Select(roster, "a", model.TeamModeBowling, "medium", 3)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("But the safety ranking still falls back to the full pool", func() {
			So(safety.Rank(roster, model.TeamModeBowling, "medium", 3), ShouldNotBeEmpty)
		})
	})

	Convey("Given a capability flag on a player without a bowling role", t, func() {
		p := member("x", "Part-timer", "Batter", 1)
		p.CanBowl = true
		got := replacement.Select([]model.RosterPlayer{p}, "a", model.TeamModeBowling, "", 3)
		So(len(got), ShouldEqual, 1)
	})
}

func TestMatch(t *testing.T) {
	Convey("Given a candidate list", t, func() {
		cands := []types.Candidate{{PlayerID: "s1", Name: "Ravi Spinner"}, {PlayerID: "p1", Name: "Seamer"}}

		Convey("Then references match by id or name case-insensitively", func() {
			c, ok := replacement.Match(cands, types.ReplacementRef{PlayerID: "P1"})
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "Seamer")

			c, ok = replacement.Match(cands, types.ReplacementRef{Name: "ravi spinner"})
			So(ok, ShouldBeTrue)
			So(c.PlayerID, ShouldEqual, "s1")
		})

		Convey("And unknown references do not match", func() {
			_, ok := replacement.Match(cands, types.ReplacementRef{Name: "Somebody Else"})
			So(ok, ShouldBeFalse)
			_, ok = replacement.Match(cands, types.ReplacementRef{})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEligible(t *testing.T) {
	Convey("Given five fit bowlers", t, func() {
		roster := []model.RosterPlayer{
			member("b1", "One", "Fast bowler", 1),
			member("b2", "Two", "Fast bowler", 2),
			member("b3", "Three", "Fast bowler", 3),
			member("b4", "Four", "Fast bowler", 4),
			member("b5", "Five", "Fast bowler", 5),
		}

		all := replacement.Eligible(roster, "", model.TeamModeBowling, "medium")
		shown := replacement.Select(roster, "", model.TeamModeBowling, "medium", 3)

		Convey("Then every bowler is eligible and Select is the ranked prefix", func() {
			So(all, ShouldHaveLength, 5)
			So(shown, ShouldResemble, all[:3])
			So(all[3].PlayerID, ShouldEqual, "b4")
			So(all[3].Rank, ShouldEqual, 4)
		})

		Convey("Then the fourth bowler is matched only in the full set", func() {
			_, inShown := replacement.Match(shown, types.ReplacementRef{PlayerID: "b4"})
			_, inAll := replacement.Match(all, types.ReplacementRef{PlayerID: "b4"})
			So(inShown, ShouldBeFalse)
			So(inAll, ShouldBeTrue)
		})
	})
}
