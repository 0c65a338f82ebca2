package routersvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/overcall/internal/adapters/routersvc"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/routing"
	"github.com/okian/overcall/internal/domain/types"
)

func TestClientRoute(t *testing.T) {
	Convey("Given a router service", t, func() {
		var sent map[string]any
		reply := `{"intent":"PressureControl","selectedAgents":["risk","bogus"],"rulesFired":["chasing_pressure"],"rationale":"chase is on"}`
		status := http.StatusOK
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&sent)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, reply)
		}))
		defer srv.Close()

		c, err := routersvc.New(srv.URL)
		So(err, ShouldBeNil)

		score := 81.0
		req := model.NormalizedRequest{
			RequestID: "r-9",
			Mode:      model.ModeAuto,
			Signals:   model.Signals{RiskScore: &score},
			Match:     model.MatchContext{Phase: "death", RequiredRunRate: 11},
		}

		Convey("When it proposes a route", func() {
			p, err := c.Route(context.Background(), req)

			Convey("Then the body carries signals and match context", func() {
				So(err, ShouldBeNil)
				So(sent, ShouldContainKey, "signals")
				So(sent, ShouldContainKey, "matchContext")
				So(sent, ShouldContainKey, "context")
				So(sent["signals"].(map[string]any)["riskScore"], ShouldEqual, 81.0)
			})

			Convey("Then adopting the proposal drops unknown agents", func() {
				So(p.Intent, ShouldEqual, "PressureControl")
				d, err := routing.Adopt(p, types.SourceExternal)
				So(err, ShouldBeNil)
				So(d.SelectedAgents, ShouldResemble, []types.Agent{types.AgentRisk, types.AgentTactical})
				So(d.Rationale, ShouldEqual, "chase is on")
			})
		})

		Convey("When the service fails", func() {
			status = http.StatusServiceUnavailable
			_, err := c.Route(context.Background(), req)
			So(errors.Is(err, routersvc.ErrStatus), ShouldBeTrue)
		})

		Convey("When the service answers garbage", func() {
			reply = `not json`
			_, err := c.Route(context.Background(), req)
			So(errors.Is(err, routersvc.ErrNotObject), ShouldBeTrue)
		})
	})

	Convey("Given no url", t, func() {
		_, err := routersvc.New("")
		So(errors.Is(err, routersvc.ErrInvalidURL), ShouldBeTrue)
	})
}
