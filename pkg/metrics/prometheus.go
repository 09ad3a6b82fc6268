// Package metrics provides Prometheus metrics for the name registry pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Store load
	storeLoadDuration *prometheus.HistogramVec
	recordsLoaded     prometheus.Gauge
	rowsDropped       *prometheus.CounterVec
	boundariesLoaded  *prometheus.GaugeVec
	mappingEntries    prometheus.Gauge

	// Queries
	queries          *prometheus.CounterVec
	queryLatency     *prometheus.HistogramVec
	queryEmpty       *prometheus.CounterVec
	queryErrors      *prometheus.CounterVec
	regionUnresolved prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prenoms",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      map[string]string{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.storeLoadDuration = auto.NewHistogramVec(
		m.histogramOpts("store_load_duration_milliseconds", "Time spent loading a store at startup", m.histogramBuckets),
		[]string{"store"},
	)
	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Registry records kept after normalization"))
	m.rowsDropped = auto.NewCounterVec(
		m.counterOpts("rows_dropped_total", "Registry rows removed during normalization"),
		[]string{"reason"},
	)
	m.boundariesLoaded = auto.NewGaugeVec(
		m.gaugeOpts("boundaries_loaded", "Boundary polygons loaded per level"),
		[]string{"level"},
	)
	m.mappingEntries = auto.NewGauge(m.gaugeOpts("mapping_entries", "Department to region mapping entries"))

	m.queries = auto.NewCounterVec(
		m.counterOpts("queries_total", "Derived-view computations by view"),
		[]string{"view"},
	)
	m.queryLatency = auto.NewHistogramVec(
		m.histogramOpts("query_latency_milliseconds", "Derived-view computation latency", m.histogramBuckets),
		[]string{"view"},
	)
	m.queryEmpty = auto.NewCounterVec(
		m.counterOpts("query_empty_total", "Queries whose selection matched no rows"),
		[]string{"view"},
	)
	m.queryErrors = auto.NewCounterVec(
		m.counterOpts("query_errors_total", "Queries rejected or aborted"),
		[]string{"view"},
	)
	m.regionUnresolved = auto.NewCounter(
		m.counterOpts("region_unresolved_rows_total", "Rows dropped from region aggregation for lack of a mapping"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordStoreLoad records how long a store took to load.
func RecordStoreLoad(store string, durationMs float64) {
	globalManager.storeLoadDuration.WithLabelValues(store).Observe(durationMs)
}

// UpdateRecordsLoaded sets the number of kept registry records.
func UpdateRecordsLoaded(count int) {
	globalManager.recordsLoaded.Set(float64(count))
}

// RecordRowsDropped adds n rows removed for reason.
func RecordRowsDropped(reason string, n int) {
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// UpdateBoundariesLoaded sets the polygon count of a boundary level.
func UpdateBoundariesLoaded(level string, count int) {
	globalManager.boundariesLoaded.WithLabelValues(level).Set(float64(count))
}

// UpdateMappingEntries sets the size of the department to region mapping.
func UpdateMappingEntries(count int) {
	globalManager.mappingEntries.Set(float64(count))
}

// RecordQuery counts a view computation and its latency.
func RecordQuery(view string, latencyMs float64) {
	globalManager.queries.WithLabelValues(view).Inc()
	globalManager.queryLatency.WithLabelValues(view).Observe(latencyMs)
}

// RecordQueryEmpty counts a query whose selection matched nothing.
func RecordQueryEmpty(view string) {
	globalManager.queryEmpty.WithLabelValues(view).Inc()
}

// RecordQueryError counts a rejected or aborted query.
func RecordQueryError(view string) {
	globalManager.queryErrors.WithLabelValues(view).Inc()
}

// RecordRegionUnresolved adds rows dropped from a region join.
func RecordRegionUnresolved(n int) {
	globalManager.regionUnresolved.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
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
