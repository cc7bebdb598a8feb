// Package metrics provides Prometheus metrics for the trip buddy matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the delivery counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager manages all Prometheus metrics for the matching service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Search lifecycle
	searchesSubmitted prometheus.Counter
	searchesDelegated prometheus.Counter
	searchesCompleted prometheus.Counter
	searchesFailed    *prometheus.CounterVec
	pipelineLatency   prometheus.Histogram
	resultsPerSearch  prometheus.Histogram

	// Candidate funnel
	candidatesEvaluated prometheus.Counter
	candidatesMatched   prometheus.Counter
	sourceErrors        *prometheus.CounterVec

	// Skill analysis cache
	skillCacheHits   prometheus.Counter
	skillCacheMisses prometheus.Counter

	// Outbound calls
	webhookDeliveries *prometheus.CounterVec
	workflowRequests  *prometheus.CounterVec

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueue            prometheus.Counter
	queueDequeue            prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

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

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tripbuddy",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.searchesSubmitted = m.counter("searches_submitted_total", "Total number of accepted search requests")
	m.searchesDelegated = m.counter("searches_delegated_total", "Total number of searches handed to the remote workflow")
	m.searchesCompleted = m.counter("searches_completed_total", "Total number of searches that produced results")
	m.searchesFailed = m.counterVec("searches_failed_total", "Total number of searches that ended in the failed state", "reason")
	m.pipelineLatency = m.histogram("pipeline_latency_milliseconds", "End to end local pipeline latency in milliseconds", m.histogramBuckets)
	m.resultsPerSearch = m.histogram("results_per_search", "Number of ranked matches per completed search",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100})

	m.candidatesEvaluated = m.counter("candidates_evaluated_total", "Total number of candidates considered by the filter chain")
	m.candidatesMatched = m.counter("candidates_matched_total", "Total number of candidates that passed filtering and the score threshold")
	m.sourceErrors = m.counterVec("source_errors_total", "Auxiliary data fetches that failed and were degraded to empty", "source")

	m.skillCacheHits = m.counter("skill_cache_hits_total", "Skill vector lookups served from the cache")
	m.skillCacheMisses = m.counter("skill_cache_misses_total", "Skill vector lookups that required recomputation")

	m.webhookDeliveries = m.counterVec("webhook_deliveries_total", "Completion webhook deliveries by outcome", "outcome")
	m.workflowRequests = m.counterVec("workflow_requests_total", "Remote workflow calls by operation and outcome", "operation", "outcome")

	m.queueSize = m.gauge("queue_size", "Current number of pending match jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.workerCount = m.gauge("worker_count", "Current number of pipeline workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker job errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSearchSubmitted increments the accepted searches counter.
func RecordSearchSubmitted() {
	globalManager.searchesSubmitted.Inc()
}

// RecordSearchDelegated increments the delegated searches counter.
func RecordSearchDelegated() {
	globalManager.searchesDelegated.Inc()
}

// RecordSearchCompleted records a completed search and its result count.
func RecordSearchCompleted(results int) {
	globalManager.searchesCompleted.Inc()
	globalManager.resultsPerSearch.Observe(float64(results))
}

// RecordSearchFailed increments the failed searches counter for reason.
func RecordSearchFailed(reason string) {
	globalManager.searchesFailed.WithLabelValues(reason).Inc()
}

// RecordPipelineLatency records local pipeline latency in milliseconds.
func RecordPipelineLatency(latencyMs float64) {
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordCandidates adds to the evaluated and matched candidate counters.
func RecordCandidates(evaluated, matched int) {
	globalManager.candidatesEvaluated.Add(float64(evaluated))
	globalManager.candidatesMatched.Add(float64(matched))
}

// RecordSourceError increments the degraded fetch counter for source.
func RecordSourceError(source string) {
	globalManager.sourceErrors.WithLabelValues(source).Inc()
}

// RecordSkillCacheHit increments the skill cache hit counter.
func RecordSkillCacheHit() {
	globalManager.skillCacheHits.Inc()
}

// RecordSkillCacheMiss increments the skill cache miss counter.
func RecordSkillCacheMiss() {
	globalManager.skillCacheMisses.Inc()
}

// RecordWebhookDelivery records a completion webhook outcome.
func RecordWebhookDelivery(outcome string) {
	globalManager.webhookDeliveries.WithLabelValues(outcome).Inc()
}

// RecordWorkflowRequest records a remote workflow call outcome.
func RecordWorkflowRequest(operation, outcome string) {
	globalManager.workflowRequests.WithLabelValues(operation, outcome).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
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

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

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
