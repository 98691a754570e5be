// Package metrics provides Prometheus metrics for the Weave dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the dashboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Status card loader
	cardFetches      *prometheus.CounterVec
	cardFetchLatency prometheus.Histogram
	cardsMounted     prometheus.Counter
	cardMountErrors  *prometheus.CounterVec

	// Card board
	cardsPublished prometheus.Gauge

	// Static files
	staticFiles *prometheus.CounterVec

	// RPC
	rpcCalls *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var (
	globalManager  *Manager
	customRegistry = prometheus.NewRegistry()
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "weave",
		subsystem:        "dashboard",
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP responses with status >= 400 by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.cardFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "status_card_fetches_total",
		Help:        "Status card fetches by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.cardFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "status_card_fetch_latency_milliseconds",
		Help:        "Latency of the status card fetch in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.cardsMounted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "status_cards_mounted_total",
		Help:        "Cards mounted into a dashboard container",
		ConstLabels: m.constLabels,
	})

	m.cardMountErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "status_card_mount_errors_total",
		Help:        "Cards that failed to mount, by component",
		ConstLabels: m.constLabels,
	}, []string{"component"})

	m.cardsPublished = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "status_cards_published",
		Help:        "Cards currently published on the board",
		ConstLabels: m.constLabels,
	})

	m.staticFiles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "static_file_operations_total",
		Help:        "Static resource registrations and removals by outcome",
		ConstLabels: m.constLabels,
	}, []string{"operation", "outcome"})

	m.rpcCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rpc_calls_total",
		Help:        "RPC invocations by server, api and outcome",
		ConstLabels: m.constLabels,
	}, []string{"rpc", "api", "outcome"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func manager() *Manager { return globalManager }

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	manager().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	manager().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	manager().errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordCardFetch counts a status card fetch; outcome is "ok" or an error class.
func RecordCardFetch(outcome string, latencyMs float64) {
	m := manager()
	m.cardFetches.WithLabelValues(outcome).Inc()
	m.cardFetchLatency.Observe(latencyMs)
}

// RecordCardMounted counts a successful mount.
func RecordCardMounted() {
	manager().cardsMounted.Inc()
}

// RecordCardMountError counts a failed mount.
func RecordCardMountError(component string) {
	manager().cardMountErrors.WithLabelValues(component).Inc()
}

// UpdateCardsPublished sets the number of cards on the board.
func UpdateCardsPublished(count int) {
	manager().cardsPublished.Set(float64(count))
}

// RecordStaticFileOperation counts a static resource register/unregister.
func RecordStaticFileOperation(operation, outcome string) {
	manager().staticFiles.WithLabelValues(operation, outcome).Inc()
}

// RecordRPCCall counts an RPC invocation.
func RecordRPCCall(rpc, api, outcome string) {
	manager().rpcCalls.WithLabelValues(rpc, api, outcome).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	manager().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	manager().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	manager().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
