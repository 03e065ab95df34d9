// Package metrics provides Prometheus metrics for the blueprint service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Rendering through headless Chrome and the
// SMTP handshake both routinely take seconds.
var defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

// Manager manages all Prometheus metrics for the blueprint service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline outcome metrics
	blueprintsGenerated prometheus.Counter
	blueprintFailures   *prometheus.CounterVec
	pipelineDuration    prometheus.Histogram
	stageDuration       *prometheus.HistogramVec

	// Derived value distribution
	lifePaths    *prometheus.CounterVec
	humanDesigns *prometheus.CounterVec

	// External collaborators
	astrologyResponses *prometheus.CounterVec
	emailsSent         prometheus.Counter
	emailsFailed       prometheus.Counter
	reportsRemoved     prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "blueprint",
		subsystem:        "service",
		histogramBuckets: defaultLatencyBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.blueprintsGenerated = auto.NewCounter(m.counterOpts(
		"blueprints_generated_total", "Total number of blueprints completed successfully"))
	m.blueprintFailures = auto.NewCounterVec(m.counterOpts(
		"blueprint_failures_total", "Total number of failed blueprint requests by error kind"),
		[]string{"kind"})
	m.pipelineDuration = auto.NewHistogram(m.histogramOpts(
		"pipeline_duration_milliseconds", "End-to-end blueprint pipeline duration in milliseconds"))
	m.stageDuration = auto.NewHistogramVec(m.histogramOpts(
		"stage_duration_milliseconds", "Duration of each pipeline stage in milliseconds"),
		[]string{"stage", "outcome"})

	m.lifePaths = auto.NewCounterVec(m.counterOpts(
		"life_path_total", "Life path numbers computed"),
		[]string{"number"})
	m.humanDesigns = auto.NewCounterVec(m.counterOpts(
		"human_design_total", "Human design types assigned"),
		[]string{"type"})

	m.astrologyResponses = auto.NewCounterVec(m.counterOpts(
		"astrology_responses_total", "Astrology provider responses by HTTP status code"),
		[]string{"status_code"})
	m.emailsSent = auto.NewCounter(m.counterOpts(
		"emails_sent_total", "Report emails delivered to the SMTP server"))
	m.emailsFailed = auto.NewCounter(m.counterOpts(
		"emails_failed_total", "Report emails that failed to send"))
	m.reportsRemoved = auto.NewCounter(m.counterOpts(
		"reports_removed_total", "Report files deleted after a later pipeline stage failed"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total errors by type and severity"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		ConstLabels: m.customLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
}

// RecordBlueprintGenerated increments the completed blueprints counter.
func RecordBlueprintGenerated() {
	globalManager.blueprintsGenerated.Inc()
}

// RecordBlueprintFailure counts a failed request by error kind.
func RecordBlueprintFailure(kind string) {
	globalManager.blueprintFailures.WithLabelValues(kind).Inc()
}

// RecordPipelineDuration records end-to-end pipeline latency in milliseconds.
func RecordPipelineDuration(latencyMs float64) {
	globalManager.pipelineDuration.Observe(latencyMs)
}

// RecordStage records how long a pipeline stage took and whether it succeeded.
func RecordStage(stage string, ok bool, latencyMs float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	globalManager.stageDuration.WithLabelValues(stage, outcome).Observe(latencyMs)
}

// RecordLifePath counts a computed life path number.
func RecordLifePath(n int) {
	globalManager.lifePaths.WithLabelValues(strconv.Itoa(n)).Inc()
}

// RecordHumanDesign counts an assigned human design type.
func RecordHumanDesign(hdType string) {
	globalManager.humanDesigns.WithLabelValues(hdType).Inc()
}

// RecordAstrologyResponse counts a provider response by status code.
func RecordAstrologyResponse(statusCode int) {
	globalManager.astrologyResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordEmailSent increments the delivered emails counter.
func RecordEmailSent() {
	globalManager.emailsSent.Inc()
}

// RecordEmailFailed increments the failed emails counter.
func RecordEmailFailed() {
	globalManager.emailsFailed.Inc()
}

// RecordReportRemoved counts a compensating report deletion.
func RecordReportRemoved() {
	globalManager.reportsRemoved.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
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
