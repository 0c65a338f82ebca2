package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))

			Convey("Then defaults are applied", func() {
				So(m.namespace, ShouldEqual, "overcall")
				So(m.subsystem, ShouldEqual, "advice")
				So(m.histogramBuckets, ShouldResemble, latencyBuckets)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2}),
				WithPrometheusRegistry(registry),
			)
			m.routerFallbacks.Inc()

			Convey("Then metric names carry the namespace", func() {
				mfs, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range mfs {
					if mf.GetName() == "test_unit_router_fallbacks_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options are empty", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(m.namespace, ShouldEqual, "overcall")
			So(m.histogramBuckets, ShouldResemble, latencyBuckets)
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When routing decisions are recorded", func() {
			before := testutil.ToFloat64(globalManager.routerFallbacks)
			RecordRoutingDecision("InjuryPrevention", "local", true)
			RecordRoutingDecision("General", "external", false)

			So(testutil.ToFloat64(globalManager.routerFallbacks), ShouldEqual, before+1)
			So(testutil.ToFloat64(globalManager.routingDecisions.WithLabelValues("General", "external")), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When evaluator calls are recorded", func() {
			before := testutil.ToFloat64(globalManager.evaluatorCalls.WithLabelValues("risk", "error"))
			RecordEvaluatorCall("risk", "error", 12)
			RecordEvaluatorCall("fatigue", "skipped", 0)
			So(testutil.ToFloat64(globalManager.evaluatorCalls.WithLabelValues("risk", "error")), ShouldEqual, before+1)
		})

		Convey("When final decisions are recorded", func() {
			before := testutil.ToFloat64(globalManager.noEligibleReplacement)
			RecordFinalDecision("rules_fallback", true)
			RecordFinalDecision("tactical", false)
			So(testutil.ToFloat64(globalManager.noEligibleReplacement), ShouldEqual, before+1)
		})

		Convey("When gauges are set", func() {
			UpdateQueueSize(7)
			UpdateRepositoryRecords("baselines", 3)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.repositoryRecords.WithLabelValues("baselines")), ShouldEqual, 3)
		})

		Convey("Then the remaining recorders do not panic", func() {
			So(func() {
				RecordAdviceRequest("current")
				RecordAdviceLatency(20)
				RecordDegraded("router")
				RecordBaselineLookup("hit", 2)
				RecordRepositoryQueryLatency(1)
				RecordRepositoryUpdateLatency(1)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(7)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(3)
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(4)
				RecordWorkerError()
				RecordAuditPersisted()
				RecordAuditDuplicate()
				RecordHTTPRequest("/v1/advise", "POST", "200")
				RecordHTTPRequestDuration("/v1/advise", "POST", "200", 15)
				RecordErrorByComponent("router", "timeout")
				RecordErrorByType("timeout", "warning")
				RecordErrorByEndpoint("/v1/advise", "POST", "bad_request")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry exposes the families", func() {
			names, err := Families()
			So(err, ShouldBeNil)
			So(names, ShouldContain, "overcall_advice_requests_total")
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}

func TestRecordersConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.auditPersisted)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordAuditPersisted()
				}
			}()
		}
		wg.Wait()
		So(testutil.ToFloat64(globalManager.auditPersisted), ShouldEqual, before+1000)
	})
}
