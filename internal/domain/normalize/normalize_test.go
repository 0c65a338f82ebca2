package normalize_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestNormalize_SchemaDetection(t *testing.T) {
	Convey("Given payloads of both schema generations", t, func() {
		Convey("When telemetry and matchContext are both populated", func() {
			req := normalize.Normalize(decode(t, `{"telemetry":{"fatigueIndex":4},"matchContext":{"phase":"Death"}}`))

			Convey("Then it is read as the current schema", func() {
				So(req.Schema, ShouldEqual, model.SchemaCurrent)
				So(req.Telemetry.FatigueIndex, ShouldEqual, 4)
				So(req.Match.Phase, ShouldEqual, "death")
			})
		})

		Convey("When only the legacy player and match objects are present", func() {
			req := normalize.Normalize(decode(t, `{"type":"risk","player":{"id":"p1","fatigue":"7.5","noBallRisk":"critical"},"match":{"requiredRate":9.2,"tactical":{"phase":"powerplay","wickets":4}}}`))

			Convey("Then legacy locations and aliases are honoured", func() {
				So(req.Schema, ShouldEqual, model.SchemaLegacy)
				So(req.Mode, ShouldEqual, model.ModeRisk)
				So(req.Telemetry.PlayerID, ShouldEqual, "p1")
				So(req.Telemetry.FatigueIndex, ShouldEqual, 7.5)
				So(req.Telemetry.NoBallRisk, ShouldEqual, model.RiskHigh)
				So(req.Match.RequiredRunRate, ShouldEqual, 9.2)
				So(req.Match.Phase, ShouldEqual, "powerplay")
				So(req.Match.WicketsInHand, ShouldEqual, 4)
			})
		})

		Convey("When a version flag is missing but matchContext is empty", func() {
			req := normalize.Normalize(decode(t, `{"telemetry":{"fatigueIndex":8},"matchContext":{}}`))

			Convey("Then the populated telemetry is still picked up", func() {
				So(req.Schema, ShouldEqual, model.SchemaLegacy)
				So(req.Telemetry.FatigueIndex, ShouldEqual, 8)
			})
		})

		Convey("When nothing usable is present", func() {
			req := normalize.Normalize(map[string]any{"mode": "full"})

			Convey("Then the request is tagged empty but fully defaulted", func() {
				So(req.Schema, ShouldEqual, model.SchemaEmpty)
				So(req.Match.Phase, ShouldEqual, "middle")
				So(req.Telemetry.InjuryRisk, ShouldEqual, model.RiskUnknown)
				So(req.Telemetry.Baseline.SleepHours, ShouldEqual, model.DefaultSleepHours)
				So(req.CandidateLimit, ShouldEqual, model.DefaultCandidateLimit)
			})
		})

		Convey("When the payload is nil", func() {
			So(func() { normalize.Normalize(nil) }, ShouldNotPanic)
			So(normalize.Normalize(nil).Schema, ShouldEqual, model.SchemaEmpty)
		})
	})
}

func TestNormalize_RoundTrip(t *testing.T) {
	Convey("Given equivalent legacy and current payloads", t, func() {
		legacy := normalize.Normalize(decode(t, `{"player":{"id":"b7","name":"Quick One","role":"Fast bowler","fatigue":8,"strain":5,"overs":3,"injuryRisk":"medium"},"match":{"phase":"death","requiredRate":11,"runRate":8,"teamMode":"bowling"},"players":[{"id":"s1","role":"spin"}]}`))
		current := normalize.Normalize(decode(t, `{"telemetry":{"playerId":"b7","playerName":"Quick One","role":"Fast bowler","fatigueIndex":8,"strainIndex":5,"oversBowled":3,"injuryRisk":"MEDIUM"},"matchContext":{"phase":"DEATH","requiredRunRate":11,"currentRunRate":8,"teamMode":"BOWLING"},"players":[{"playerId":"s1","role":"spin"}]}`))

		Convey("Then they normalize to the same canonical request", func() {
			So(legacy.Schema, ShouldEqual, model.SchemaLegacy)
			So(current.Schema, ShouldEqual, model.SchemaCurrent)
			diff := cmp.Diff(legacy, current, cmpopts.IgnoreFields(model.NormalizedRequest{}, "Schema"))
			So(diff, ShouldBeEmpty)
		})

		Convey("And the minimal fatigue example agrees", func() {
			a := normalize.Normalize(decode(t, `{"player":{"fatigueIndex":8}}`))
			b := normalize.Normalize(decode(t, `{"telemetry":{"fatigueIndex":8},"matchContext":{}}`))
			So(a.Telemetry.FatigueIndex, ShouldEqual, 8)
			So(cmp.Diff(a, b), ShouldBeEmpty)
		})
	})
}

func TestNormalize_ClampAndDefaults(t *testing.T) {
	Convey("Given out-of-range and malformed numbers", t, func() {
		req := normalize.Normalize(decode(t, `{"telemetry":{"fatigueIndex":42,"strainIndex":-3,"oversBowled":"abc","sleepHours":20,"recoveryScore":"NaN","injuryRisk":"severe"},"matchContext":{"wicketsInHand":14,"oversRemaining":-1}}`))

		Convey("Then bounded fields are clamped and unusable values fall back", func() {
			So(req.Telemetry.FatigueIndex, ShouldEqual, 10)
			So(req.Telemetry.StrainIndex, ShouldEqual, 0)
			So(req.Telemetry.OversBowled, ShouldEqual, 0)
			So(req.Telemetry.Baseline.SleepHours, ShouldEqual, 12)
			So(req.Telemetry.Baseline.RecoveryScore, ShouldEqual, model.DefaultRecoveryScore)
			So(req.Telemetry.Baseline.Source, ShouldEqual, model.BaselineFromRequest)
			So(req.Telemetry.InjuryRisk, ShouldEqual, model.RiskUnknown)
			So(req.Match.WicketsInHand, ShouldEqual, 10)
			So(req.Match.OversRemaining, ShouldEqual, 0)
		})
	})

	Convey("Given the coercion helpers", t, func() {
		So(normalize.Float(math.Inf(1), 6, 0, 12), ShouldEqual, 6)
		So(normalize.Float(math.NaN(), 45, 0, 100), ShouldEqual, 45)
		So(normalize.Float(" 3.5 ", 0, 0, 10), ShouldEqual, 3.5)
		So(normalize.OptionalFloat(nil, 0, 10), ShouldBeNil)
		So(normalize.Bool("yes"), ShouldBeTrue)
		So(normalize.Text(12.0), ShouldEqual, "12")
	})
}

func TestNormalize_Phase(t *testing.T) {
	Convey("Given free-form phase labels", t, func() {
		cases := []struct{ in, want string }{
			{"Death Overs", "death"},
			{"death-overs", "death"},
			{"PowerPlay", "powerplay"},
			{"power play", "powerplay"},
			{"Middle overs", "middle"},
			{"Super Over", "super over"},
		}
		for _, c := range cases {
			req := normalize.Normalize(map[string]any{"matchContext": map[string]any{"phase": c.in}})
			So(req.Match.Phase, ShouldEqual, c.want)
		}
	})
}

func TestNormalize_Roster(t *testing.T) {
	Convey("Given a roster with duplicates and nested snapshots", t, func() {
		req := normalize.Normalize(decode(t, `{"telemetry":{"playerId":"a"},"matchContext":{"phase":"middle"},"players":[
			{"playerId":"r1","name":"One","role":"Seam","baseline":{"sleepHours":8,"workload7d":12},"live":{"fatigueIndex":3,"injuryRisk":"low"}},
			{"playerId":"R1","name":"Dup"},
			{"name":"Nameless Id"},
			{}
		]}`))

		Convey("Then duplicates are dropped case-insensitively and ids fall back to names", func() {
			So(len(req.Roster), ShouldEqual, 2)
			So(req.Roster[0].Baseline.SleepHours, ShouldEqual, 8)
			So(req.Roster[0].Baseline.Workload7d, ShouldEqual, 12)
			So(req.Roster[0].FatigueIndex, ShouldEqual, 3)
			So(req.Roster[0].InjuryRisk, ShouldEqual, model.RiskLow)
			So(req.Roster[1].PlayerID, ShouldEqual, "Nameless Id")
			So(req.Roster[1].Baseline.Source, ShouldEqual, model.BaselineDefault)
		})
	})
}

func TestBaseline(t *testing.T) {
	Convey("Given a standalone baseline document", t, func() {
		b := normalize.Baseline(map[string]any{"sleepHours": "7.5", "fatigueLimit": 14.0})

		Convey("Then fields are coerced, clamped and defaulted", func() {
			So(b.Provided, ShouldBeTrue)
			So(b.SleepHours, ShouldEqual, 7.5)
			So(b.FatigueLimit, ShouldEqual, 10)
			So(b.RecoveryScore, ShouldEqual, model.DefaultRecoveryScore)
			So(b.Source, ShouldEqual, model.BaselineFromRequest)
		})

		Convey("Then an empty document is not provided", func() {
			So(normalize.Baseline(map[string]any{"note": "x"}).Provided, ShouldBeFalse)
		})
	})
}
