// Package metrics provides Prometheus metrics for the overcall advice service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers evaluator and store calls in milliseconds.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 12000} //nolint:gochecknoglobals

// Manager manages all Prometheus metrics for the advice service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Advice pipeline
	adviceRequests        *prometheus.CounterVec
	adviceLatency         prometheus.Histogram
	routingDecisions      *prometheus.CounterVec
	routerFallbacks       prometheus.Counter
	evaluatorCalls        *prometheus.CounterVec
	evaluatorLatency      *prometheus.HistogramVec
	synthesisSource       *prometheus.CounterVec
	noEligibleReplacement prometheus.Counter
	degraded              *prometheus.CounterVec

	// Baseline and audit stores
	baselineLookups         *prometheus.CounterVec
	repositoryRecords       *prometheus.GaugeVec
	repositoryQueryLatency  prometheus.Histogram
	repositoryUpdateLatency prometheus.Histogram

	// Audit queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Audit workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	auditPersisted          prometheus.Counter
	auditDuplicate          prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "overcall",
		subsystem:        "advice",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.adviceRequests = m.counterVec("requests_total", "Advice requests by payload schema", "schema")
	m.adviceLatency = m.histogram("latency_milliseconds", "End-to-end advice latency in milliseconds")
	m.routingDecisions = m.counterVec("routing_decisions_total", "Routing decisions by intent and source", "intent", "source")
	m.routerFallbacks = m.counter("router_fallbacks_total", "Routing decisions that fell back to the local rules")
	m.evaluatorCalls = m.counterVec("evaluator_calls_total", "Evaluator calls by agent and outcome", "agent", "outcome")
	m.evaluatorLatency = m.histogramVec("evaluator_latency_milliseconds", "Evaluator call latency in milliseconds", "agent")
	m.synthesisSource = m.counterVec("final_decisions_total", "Final decisions by the layer that produced them", "source")
	m.noEligibleReplacement = m.counter("no_eligible_replacement_total", "Decisions that reported no eligible replacement")
	m.degraded = m.counterVec("degraded_total", "Fallbacks taken while building a response", "layer")

	m.baselineLookups = m.counterVec("baseline_lookups_total", "Baseline store lookups by outcome", "outcome")
	m.repositoryRecords = m.gaugeVec("repository_records", "Records held per store", "store")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Store read latency in milliseconds")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Store write latency in milliseconds")

	m.queueSize = m.gauge("audit_queue_size", "Audit records waiting in the queue")
	m.queueCapacity = m.gauge("audit_queue_capacity", "Audit queue capacity")
	m.queueUtilization = m.gauge("audit_queue_utilization_percent", "Audit queue utilization percentage")
	m.queueEnqueue = m.counter("audit_queue_enqueue_total", "Audit records enqueued")
	m.queueDequeue = m.counter("audit_queue_dequeue_total", "Audit records dequeued")
	m.queueEnqueueErrors = m.counter("audit_queue_dropped_total", "Audit records dropped on a full or closed queue")
	m.queueProcessingLatency = m.histogram("audit_queue_wait_milliseconds", "Time audit records spend queued in milliseconds")

	m.workerCount = m.gauge("audit_worker_count", "Configured audit workers")
	m.workerActiveCount = m.gauge("audit_worker_active", "Audit workers currently persisting a record")
	m.workerProcessingLatency = m.histogram("audit_worker_latency_milliseconds", "Audit persist latency in milliseconds")
	m.workerErrors = m.counter("audit_worker_errors_total", "Audit records that failed to persist")
	m.auditPersisted = m.counter("audit_persisted_total", "Audit records persisted")
	m.auditDuplicate = m.counter("audit_duplicate_total", "Audit records skipped as duplicates")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds")
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// Advice pipeline.

// RecordAdviceRequest counts one advice request by schema.
func RecordAdviceRequest(schema string) {
	globalManager.adviceRequests.WithLabelValues(schema).Inc()
}

// RecordAdviceLatency records end-to-end advice latency.
func RecordAdviceLatency(latencyMs float64) {
	globalManager.adviceLatency.Observe(latencyMs)
}

// RecordRoutingDecision counts a routing decision.
func RecordRoutingDecision(intent, source string, fallback bool) {
	globalManager.routingDecisions.WithLabelValues(intent, source).Inc()
	if fallback {
		globalManager.routerFallbacks.Inc()
	}
}

// RecordEvaluatorCall counts an evaluator call and its latency. outcome is "ok", "error" or "skipped".
func RecordEvaluatorCall(agent, outcome string, latencyMs float64) {
	globalManager.evaluatorCalls.WithLabelValues(agent, outcome).Inc()
	if outcome != "skipped" {
		globalManager.evaluatorLatency.WithLabelValues(agent).Observe(latencyMs)
	}
}

// RecordFinalDecision counts the layer that produced the final decision.
func RecordFinalDecision(source string, noEligibleReplacement bool) {
	globalManager.synthesisSource.WithLabelValues(source).Inc()
	if noEligibleReplacement {
		globalManager.noEligibleReplacement.Inc()
	}
}

// RecordDegraded counts one fallback by layer.
func RecordDegraded(layer string) {
	globalManager.degraded.WithLabelValues(layer).Inc()
}

// Stores.

// RecordBaselineLookup counts a baseline lookup. outcome is "hit", "miss" or "error".
func RecordBaselineLookup(outcome string, n int) {
	globalManager.baselineLookups.WithLabelValues(outcome).Add(float64(n))
}

// UpdateRepositoryRecords sets the number of records held by a store.
func UpdateRepositoryRecords(store string, count int) {
	globalManager.repositoryRecords.WithLabelValues(store).Set(float64(count))
}

// RecordRepositoryQueryLatency records store read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records store write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// Audit queue.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets queue utilization in percent.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a dropped record.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a record waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Audit workers.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time to persist one record.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordAuditPersisted counts a persisted record.
func RecordAuditPersisted() {
	globalManager.auditPersisted.Inc()
}

// RecordAuditDuplicate counts a record skipped by the deduper.
func RecordAuditDuplicate() {
	globalManager.auditDuplicate.Inc()
}

// HTTP.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Families returns the names of registered metric families, for diagnostics.
func Families() ([]string, error) {
	mfs, err := customRegistry.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	return names, nil
}
