// Package metrics provides Prometheus metrics for the screening service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Anomaly call outcomes.
const (
	AnomalyAvailable   = "available"
	AnomalyUnavailable = "unavailable"
	AnomalySkipped     = "skipped"
)

// Submission statuses.
const (
	SubmissionAccepted  = "accepted"
	SubmissionDuplicate = "duplicate"
	SubmissionRejected  = "rejected"
)

var latencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// Manager owns the service's Prometheus collectors.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	scoreBuckets   []float64
	registry       prometheus.Registerer

	// Assessment outcomes
	assessments     *prometheus.CounterVec
	riskScores      *prometheus.HistogramVec
	imputedFeatures *prometheus.CounterVec
	scoringLatency  *prometheus.HistogramVec

	// Anomaly collaborator
	anomalyCalls   *prometheus.CounterVec
	anomalyLatency prometheus.Histogram

	// Submission pipeline
	submissions            *prometheus.CounterVec
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram
	workerCount            prometheus.Gauge
	workerActive           prometheus.Gauge
	workerLatency          prometheus.Histogram
	workerErrors           prometheus.Counter
	resultsStored          prometheus.Gauge
	resultsEvicted         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "dyscreen",
		subsystem:      "engine",
		latencyBuckets: latencyBuckets,
		scoreBuckets:   prometheus.LinearBuckets(10, 10, 10),
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help})
	}
	latency := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.latencyBuckets,
		})
	}

	m.assessments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessments_total",
		Help:      "Completed assessments by modality and risk tier",
	}, []string{"modality", "tier"})

	m.riskScores = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risk_score",
		Help:      "Distribution of final risk scores",
		Buckets:   m.scoreBuckets,
	}, []string{"modality"})

	m.imputedFeatures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "imputed_features_total",
		Help:      "Features that were missing or invalid and replaced by their policy default",
	}, []string{"modality", "feature"})

	m.scoringLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Time to assess one session, including the anomaly call",
		Buckets:   m.latencyBuckets,
	}, []string{"modality"})

	m.anomalyCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anomaly_calls_total",
		Help:      "Anomaly model calls by outcome",
	}, []string{"outcome"})
	m.anomalyLatency = latency("anomaly_latency_milliseconds", "Anomaly model round-trip latency")

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Asynchronous submissions by status",
	}, []string{"status"})

	m.queueSize = gauge("queue_size", "Current number of queued submissions")
	m.queueCapacity = gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueued = counter("queue_enqueue_total", "Submissions enqueued")
	m.queueDequeued = counter("queue_dequeue_total", "Submissions dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Submissions rejected by the queue")
	m.queueProcessingLatency = latency("queue_processing_latency_milliseconds", "Enqueue latency")

	m.workerCount = gauge("worker_count", "Configured assessment workers")
	m.workerActive = gauge("worker_active_count", "Workers currently assessing a submission")
	m.workerLatency = latency("worker_processing_latency_milliseconds", "Time a worker spends on one submission")
	m.workerErrors = counter("worker_errors_total", "Submissions a worker could not assess")

	m.resultsStored = gauge("results_stored", "Results held for retrieval")
	m.resultsEvicted = counter("results_evicted_total", "Results evicted to stay within the store limit")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "type"})
}

// RecordAssessment counts a finished assessment and observes its score.
func RecordAssessment(modality, tier string, score int) {
	globalManager.assessments.WithLabelValues(modality, tier).Inc()
	globalManager.riskScores.WithLabelValues(modality).Observe(float64(score))
}

// RecordImputedFeature counts a feature replaced by its policy default.
func RecordImputedFeature(modality, feature string) {
	globalManager.imputedFeatures.WithLabelValues(modality, feature).Inc()
}

// RecordScoringLatency records assessment latency in milliseconds.
func RecordScoringLatency(modality string, latencyMs float64) {
	globalManager.scoringLatency.WithLabelValues(modality).Observe(latencyMs)
}

// RecordAnomalyCall counts an anomaly call. Skipped calls have no latency.
func RecordAnomalyCall(outcome string, latencyMs float64) {
	globalManager.anomalyCalls.WithLabelValues(outcome).Inc()
	if outcome != AnomalySkipped {
		globalManager.anomalyLatency.Observe(latencyMs)
	}
}

// RecordSubmission counts a submission by status.
func RecordSubmission(status string) {
	globalManager.submissions.WithLabelValues(status).Inc()
}

// UpdateQueueSize sets the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an enqueue.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeue.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the busy worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-submission worker time in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a submission that failed in a worker.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateResultsStored sets the stored results gauge.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordResultEvicted counts an evicted result.
func RecordResultEvicted() { globalManager.resultsEvicted.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
