// Package metrics provides Prometheus metrics for the hirepulse service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	insights         *prometheus.CounterVec
	offersAnalyzed   prometheus.Gauge
	reqsAnalyzed     prometheus.Gauge
	cohortSkipped    prometheus.Counter

	// Dataset metrics
	datasets             prometheus.Gauge
	datasetImports       *prometheus.CounterVec
	datasetImportErrors  *prometheus.CounterVec
	repositoryOpDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec

	// Worker metrics
	workerActive prometheus.Gauge
	jobs         *prometheus.CounterVec
	jobLatency   prometheus.Histogram
	jobsRetained prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hirepulse",
		subsystem:        "velocity",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analyses = m.counterVec("analyses_total", "Total analyses run, by mode (sync, async)", "mode")
	m.analysisDuration = m.histogram("analysis_duration_milliseconds", "Engine run time in milliseconds", m.histogramBuckets)
	m.insights = m.counterVec("insights_total", "Insights emitted, by type", "type")
	m.offersAnalyzed = m.gauge("offers_analyzed", "Offers in the most recent analysis population")
	m.reqsAnalyzed = m.gauge("requisitions_analyzed", "Requisitions in the most recent analysis population")
	m.cohortSkipped = m.counter("cohort_skipped_total", "Analyses where too few filled requisitions existed for a cohort comparison")

	m.datasets = m.gauge("datasets", "Datasets currently stored")
	m.datasetImports = m.counterVec("dataset_imports_total", "Datasets imported, by source (api, file)", "source")
	m.datasetImportErrors = m.counterVec("dataset_import_errors_total", "Rejected dataset imports, by source", "source")
	m.repositoryOpDuration = m.histogramVec("repository_operation_duration_milliseconds", "Dataset store operation latency", "driver", "op")

	m.queueSize = m.gauge("queue_size", "Analysis jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum analysis jobs the queue holds")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Analysis jobs accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Analysis jobs handed to workers")
	m.queueRejected = m.counterVec("queue_rejected_total", "Analysis jobs refused by the queue, by reason", "reason")

	m.workerActive = m.gauge("worker_active_count", "Workers currently running")
	m.jobs = m.counterVec("jobs_total", "Finished analysis jobs, by status", "status")
	m.jobLatency = m.histogram("job_latency_milliseconds", "Time from job submission to completion", m.histogramBuckets)
	m.jobsRetained = m.gauge("jobs_retained", "Jobs currently held in the registry")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func on() bool {
	return globalManager.enabled.Load()
}

// RecordAnalysis counts one engine run in the given mode and observes its duration.
func RecordAnalysis(mode string, d time.Duration) {
	if !on() {
		return
	}
	globalManager.analyses.WithLabelValues(mode).Inc()
	globalManager.analysisDuration.Observe(float64(d.Microseconds()) / 1000)
}

// RecordInsight counts an emitted insight of type t.
func RecordInsight(t string) {
	if !on() {
		return
	}
	globalManager.insights.WithLabelValues(t).Inc()
}

// UpdatePopulation sets the sizes of the most recent analysis population.
func UpdatePopulation(offers, reqs int) {
	if !on() {
		return
	}
	globalManager.offersAnalyzed.Set(float64(offers))
	globalManager.reqsAnalyzed.Set(float64(reqs))
}

// RecordCohortSkipped counts an analysis without a cohort comparison.
func RecordCohortSkipped() {
	if !on() {
		return
	}
	globalManager.cohortSkipped.Inc()
}

// UpdateDatasetCount sets the number of stored datasets.
func UpdateDatasetCount(n int) {
	if !on() {
		return
	}
	globalManager.datasets.Set(float64(n))
}

// RecordDatasetImport counts a successful import from source.
func RecordDatasetImport(source string) {
	if !on() {
		return
	}
	globalManager.datasetImports.WithLabelValues(source).Inc()
}

// RecordDatasetImportError counts a rejected import from source.
func RecordDatasetImportError(source string) {
	if !on() {
		return
	}
	globalManager.datasetImportErrors.WithLabelValues(source).Inc()
}

// RecordRepositoryLatency observes a store operation latency in milliseconds.
func RecordRepositoryLatency(driver, op string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.repositoryOpDuration.WithLabelValues(driver, op).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	if !on() {
		return
	}
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !on() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !on() {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !on() {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	if !on() {
		return
	}
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	if !on() {
		return
	}
	globalManager.workerActive.Set(float64(count))
}

// RecordJob counts a finished job and observes its end-to-end latency.
func RecordJob(status string, latency time.Duration) {
	if !on() {
		return
	}
	globalManager.jobs.WithLabelValues(status).Inc()
	globalManager.jobLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// UpdateJobsRetained sets the number of jobs held by the registry.
func UpdateJobsRetained(n int) {
	if !on() {
		return
	}
	globalManager.jobsRetained.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !on() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !on() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !on() {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !on() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !on() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// SetEnabled turns recording on or off for the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
