package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/overcall/internal/app"
	"github.com/okian/overcall/internal/config"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("OVERCALL_ADDR", ":8080")
			t.Setenv("OVERCALL_AUDIT_WORKER_COUNT", "4")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the service from defaults", func() {
			cfg := config.New()
			svc, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			stats := svc.GetStats()
			convey.So(stats["remoteRouter"], convey.ShouldEqual, false)
			convey.So(stats["evaluators"], convey.ShouldBeEmpty)
		})

		convey.Convey("When evaluator and router URLs are configured", func() {
			cfg := config.New()
			cfg.TacticalAgentURL = "http://tactical.local/evaluate"
			cfg.RouterServiceURL = "http://router.local/route"
			svc, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			stats := svc.GetStats()
			convey.So(stats["remoteRouter"], convey.ShouldEqual, true)
			convey.So(stats["evaluators"], convey.ShouldResemble, []string{"tactical"})
		})

		convey.Convey("When an evaluator URL is malformed", func() {
			cfg := config.New()
			cfg.RiskAgentURL = "://nope"
			_, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the write timeout is derived", func() {
			cfg := config.New()
			convey.So(writeTimeout(cfg), convey.ShouldBeGreaterThan, cfg.EvaluatorTimeout())
		})
	})
}

func TestHandlerWiring(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	convey.Convey("Given the composed HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := buildService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Get())

		convey.Convey("Then an advice request is answered with a fallback decision", func() {
			body := `{"telemetry":{"playerId":"B1","role":"fast bowler","fatigueIndex":8.5,"injuryRisk":"HIGH"},"matchContext":{"teamMode":"BOWLING","phase":"death"}}`
			req := httptest.NewRequest(http.MethodPost, "/v1/advise", strings.NewReader(body))
			req.Header.Set("X-Request-ID", "wiring-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			var resp types.AdviceResponse
			convey.So(json.Unmarshal(rec.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(resp.RequestID, convey.ShouldEqual, "wiring-1")
			convey.So(resp.FinalDecision.ImmediateAction, convey.ShouldNotBeBlank)
			convey.So(resp.FinalDecision.Source, convey.ShouldEqual, types.DecisionFromRules)
		})

		convey.Convey("And the docs are served", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And stats report the started service", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"started":true`)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New()
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given invalid configuration", t, func() {
		t.Setenv("OVERCALL_ADDR", "")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
