package evaluator_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/overcall/internal/adapters/evaluator"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestHTTPEvaluator(t *testing.T) {
	Convey("Given an evaluator endpoint", t, func() {
		var got types.EvaluatorRequest
		var gotHeader string
		status := http.StatusOK
		body := `{"severity":"high","immediateAction":"Rest the bowler","confidence":82,"replacement":{"playerId":"b2"}}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeader = r.Header.Get("X-Request-ID")
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}))
		defer srv.Close()

		ev, err := evaluator.NewHTTPEvaluator(types.AgentRisk, srv.URL, evaluator.WithHeader("X-Api-Key", "k"))
		So(err, ShouldBeNil)
		So(ev.Agent(), ShouldEqual, types.AgentRisk)

		req := types.EvaluatorRequest{RequestID: "r-1", Agent: types.AgentRisk, Intent: types.IntentInjuryPrevention}

		Convey("When it answers with a verdict", func() {
			v, err := ev.Evaluate(context.Background(), req)

			Convey("Then the request is posted and the verdict decoded", func() {
				So(err, ShouldBeNil)
				So(got.RequestID, ShouldEqual, "r-1")
				So(got.Agent, ShouldEqual, types.AgentRisk)
				So(gotHeader, ShouldEqual, "r-1")
				So(v.Severity, ShouldEqual, model.SeverityHigh)
				So(v.ImmediateAction, ShouldEqual, "Rest the bowler")
				So(*v.Confidence, ShouldAlmostEqual, 0.82)
				So(v.Replacement.PlayerID, ShouldEqual, "b2")
			})
		})

		Convey("When it answers with a server error", func() {
			status = http.StatusBadGateway
			_, err := ev.Evaluate(context.Background(), req)
			So(errors.Is(err, evaluator.ErrStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "502")
		})

		Convey("When it answers with a JSON array", func() {
			body = `[1,2,3]`
			_, err := ev.Evaluate(context.Background(), req)
			So(errors.Is(err, evaluator.ErrNotObject), ShouldBeTrue)
		})

		Convey("When the caller's deadline passes", func() {
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer slow.Close()
			sev, _ := evaluator.NewHTTPEvaluator(types.AgentFatigue, slow.URL)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			_, err := sev.Evaluate(ctx, req)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given unusable urls", t, func() {
		for _, raw := range []string{"  ", "://nope", "ftp://host/x", "/relative"} {
			_, err := evaluator.NewHTTPEvaluator(types.AgentTactical, raw)
			So(errors.Is(err, evaluator.ErrInvalidURL), ShouldBeTrue)
		}
	})
}

func TestParseVerdict(t *testing.T) {
	Convey("Given loosely shaped evaluator answers", t, func() {
		Convey("When the verdict is nested and partial", func() {
			v := evaluator.ParseVerdict(map[string]any{
				"result": map[string]any{"headline": "Attack the short boundary", "confidence": 0.6},
			})
			So(v.Headline, ShouldEqual, "Attack the short boundary")
			So(*v.Confidence, ShouldEqual, 0.6)
			So(v.Severity, ShouldEqual, model.SeverityUnknown)
			So(v.Replacement.Empty(), ShouldBeTrue)
		})

		Convey("When fields use alternate spellings", func() {
			v := evaluator.ParseVerdict(map[string]any{
				"riskLevel":            "Critical",
				"action":               "Substitute now",
				"suggestedReplacement": "R. Singh",
				"adjustments":          []any{"Bowl him out", "", 3.0},
				"confidence":           "140",
			})
			So(v.Severity, ShouldEqual, model.SeverityCritical)
			So(v.ImmediateAction, ShouldEqual, "Substitute now")
			So(v.Replacement.Name, ShouldEqual, "R. Singh")
			So(v.SuggestedAdjustments, ShouldResemble, []string{"Bowl him out", "3"})
			So(*v.Confidence, ShouldEqual, 1.0)
		})

		Convey("When confidence is missing or junk", func() {
			So(evaluator.ParseVerdict(map[string]any{}).Confidence, ShouldBeNil)
			So(evaluator.ParseVerdict(map[string]any{"confidence": "high"}).Confidence, ShouldBeNil)
		})

		Convey("When adjustments is a single string", func() {
			v := evaluator.ParseVerdict(map[string]any{"suggestedAdjustments": "Move fine leg up"})
			So(v.SuggestedAdjustments, ShouldResemble, []string{"Move fine leg up"})
		})
	})
}
