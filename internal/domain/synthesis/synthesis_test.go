package synthesis_test

import (
	"testing"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/synthesis"
	"github.com/okian/overcall/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func conf(f float64) *float64 { return &f }

func input(verdicts map[types.Agent]*types.Verdict, replacements ...types.Candidate) synthesis.Input {
	return synthesis.Input{
		Request: model.NormalizedRequest{
			Mode: model.ModeAuto,
			Telemetry: model.Telemetry{
				PlayerID:     "p1",
				FatigueIndex: 4,
				Baseline:     model.DefaultBaseline(),
				NoBallRisk:   model.RiskLow,
			},
		},
		Verdicts: verdicts,
		Safety:   types.SafetyReport{Replacements: replacements},
	}
}

var (
	spinner = types.Candidate{Rank: 1, PlayerID: "s1", Name: "Ravi Spinner", Score: 9.1}
	seamer  = types.Candidate{Rank: 2, PlayerID: "p2", Name: "Seamer", Score: 7.4}
)

func TestPrecedence(t *testing.T) {
	tactical := &types.Verdict{
		ImmediateAction:      "bowl the spinner from the pavilion end",
		Explanation:          "left-handers at the crease",
		Confidence:           conf(0.81),
		SuggestedAdjustments: []string{"move slip to short cover"},
	}
	risk := &types.Verdict{Severity: model.SeverityHigh, Headline: "hamstring load"}
	fatigue := &types.Verdict{Severity: model.SeverityMedium}

	Convey("Given all three verdicts", t, func() {
		d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
			types.AgentFatigue: fatigue, types.AgentRisk: risk, types.AgentTactical: tactical,
		}))

		Convey("Then the tactical verdict is authoritative", func() {
			So(d.Source, ShouldEqual, types.DecisionFromTactical)
			So(d.ImmediateAction, ShouldEqual, tactical.ImmediateAction)
			So(d.Rationale, ShouldEqual, "left-handers at the crease")
			So(d.Confidence, ShouldEqual, 0.81)
			So(d.SuggestedAdjustments, ShouldResemble, []string{"move slip to short cover"})
		})
	})

	Convey("Given a tactical verdict without confidence or action fields", t, func() {
		d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
			types.AgentTactical: {Headline: "keep the field up"},
		}))
		So(d.ImmediateAction, ShouldEqual, "keep the field up")
		So(d.Confidence, ShouldEqual, synthesis.DefaultTacticalConfidence)
	})

	Convey("Given an empty tactical verdict and a risk verdict", t, func() {
		d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
			types.AgentTactical: {}, types.AgentRisk: risk,
		}))
		So(d.Source, ShouldEqual, types.DecisionFromRisk)
	})

	Convey("Given only a risk verdict", t, func() {
		Convey("Then urgent severities advise substitution", func() {
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentRisk: risk}, spinner))
			So(d.ImmediateAction, ShouldEqual, synthesis.ActionSubstitute)
			So(d.Confidence, ShouldEqual, 0.62)
			So(d.Rationale, ShouldEqual, "hamstring load")
			So(d.Replacement, ShouldNotBeNil)
			So(d.Replacement.PlayerID, ShouldEqual, "s1")
		})

		Convey("Then confidence follows the severity", func() {
			cases := map[model.Severity]float64{
				model.SeverityCritical: 0.55,
				model.SeverityMedium:   0.72,
				model.SeverityLow:      0.78,
				model.SeverityUnknown:  0.66,
			}
			for sev, want := range cases {
				d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentRisk: {Severity: sev}}))
				So(d.Confidence, ShouldEqual, want)
			}
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentRisk: {Severity: model.SeverityLow}}))
			So(d.ImmediateAction, ShouldEqual, synthesis.ActionMonitor)
		})

		Convey("Then a substitution with nobody eligible carries the notice", func() {
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentRisk: risk}))
			So(d.Replacement, ShouldBeNil)
			So(d.SuggestedAdjustments, ShouldContain, synthesis.NoEligibleReplacement)
		})
	})

	Convey("Given only a fatigue verdict", t, func() {
		d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
			types.AgentFatigue: {Severity: model.SeverityCritical, Recommendation: "ice bath at drinks"},
		}))
		So(d.Source, ShouldEqual, types.DecisionFromFatigue)
		So(d.ImmediateAction, ShouldEqual, synthesis.ActionRotate)
		So(d.Confidence, ShouldEqual, 0.5)
		So(d.SuggestedAdjustments, ShouldResemble, []string{"ice bath at drinks"})

		d = synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentFatigue: fatigue}))
		So(d.ImmediateAction, ShouldEqual, synthesis.ActionWorkloadMonitor)
		So(d.Confidence, ShouldEqual, 0.64)
	})
}

func TestFallback(t *testing.T) {
	Convey("Given no successful evaluator", t, func() {
		Convey("When the roster has no eligible replacements", func() {
			d := synthesis.Synthesize(input(nil))

			Convey("Then the rules fallback still answers", func() {
				So(d.Source, ShouldEqual, types.DecisionFromRules)
				So(d.ImmediateAction, ShouldEqual, synthesis.ActionFallback)
				So(d.Confidence, ShouldEqual, 0.58)
				So(d.SuggestedAdjustments, ShouldNotBeEmpty)
				So(d.Rationale, ShouldNotBeBlank)
			})
		})

		Convey("When there are several replacements and warning signs", func() {
			in := input(map[types.Agent]*types.Verdict{}, spinner, seamer, spinner, seamer)
			in.Request.Telemetry.FatigueIndex = 7
			in.Request.Telemetry.NoBallRisk = model.RiskHigh
			in.Safety.Injuries = []types.InjuryRisk{{Type: "hamstring strain", Level: model.RiskHigh}}

			d := synthesis.Synthesize(in)

			Convey("Then confidence is capped and adjustments are bounded", func() {
				So(d.Confidence, ShouldEqual, 0.64)
				So(len(d.SuggestedAdjustments), ShouldBeLessThanOrEqualTo, types.MaxAdjustments)
				So(d.SuggestedAdjustments[0], ShouldContainSubstring, "limit")
				So(d.SuggestedAdjustments[3], ShouldContainSubstring, "Ravi Spinner")
			})
		})
	})
}

func TestReplacementValidation(t *testing.T) {
	Convey("Given a tactical verdict naming a bench player", t, func() {
		v := &types.Verdict{
			ImmediateAction:      "bring on the spinner",
			Replacement:          types.ReplacementRef{Name: "ravi spinner"},
			SuggestedAdjustments: []string{"a", "b", "c", "d", "e"},
		}

		Convey("When the player is eligible", func() {
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentTactical: v}, spinner))
			So(d.Replacement, ShouldNotBeNil)
			So(d.Replacement.PlayerID, ShouldEqual, "s1")
			So(d.SuggestedAdjustments, ShouldResemble, []string{"a", "b", "c", "d"})
		})

		Convey("When the player is not in the eligible set", func() {
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{types.AgentTactical: v}, seamer))

			Convey("Then the name is withheld and the notice survives the cap", func() {
				So(d.Replacement, ShouldBeNil)
				So(len(d.SuggestedAdjustments), ShouldEqual, types.MaxAdjustments)
				So(d.SuggestedAdjustments[3], ShouldEqual, synthesis.NoEligibleReplacement)
			})
		})
	})

	Convey("Given a suggestion ranked below the displayed candidates", t, func() {
		bench := types.Candidate{Rank: 4, PlayerID: "b4", Name: "Fourth Seamer", Score: 5.2}
		in := input(map[types.Agent]*types.Verdict{
			types.AgentTactical: {ImmediateAction: "bring on a fresh seamer", Replacement: types.ReplacementRef{PlayerID: "B4"}},
		}, spinner, seamer)
		in.Eligible = []types.Candidate{spinner, seamer, bench}

		d := synthesis.Synthesize(in)
		So(d.Replacement, ShouldNotBeNil)
		So(d.Replacement.PlayerID, ShouldEqual, "b4")
		So(d.SuggestedAdjustments, ShouldNotContain, synthesis.NoEligibleReplacement)
	})

	Convey("Given a risk verdict suggesting a replacement while tactical is silent on it", t, func() {
		d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
			types.AgentTactical: {ImmediateAction: "hold the line"},
			types.AgentRisk:     {Severity: model.SeverityLow, Replacement: types.ReplacementRef{PlayerID: "P2"}},
		}, spinner, seamer))
		So(d.Source, ShouldEqual, types.DecisionFromTactical)
		So(d.Replacement.PlayerID, ShouldEqual, "p2")
	})

	Convey("Given a substitution request and an empty eligible list", t, func() {
		in := input(map[types.Agent]*types.Verdict{types.AgentTactical: {ImmediateAction: "talk to the bowler"}})
		in.Request.Mode = model.ModeSubstitution
		d := synthesis.Synthesize(in)
		So(d.SuggestedAdjustments, ShouldResemble, []string{synthesis.NoEligibleReplacement})
	})
}

func TestConfidenceBounds(t *testing.T) {
	Convey("Given out-of-range tactical confidences", t, func() {
		for _, c := range []float64{-1, 1.7, 0.333333} {
			d := synthesis.Synthesize(input(map[types.Agent]*types.Verdict{
				types.AgentTactical: {ImmediateAction: "x", Confidence: conf(c)},
			}))
			So(d.Confidence, ShouldBeBetweenOrEqual, 0.0, 1.0)
		}
	})
}
