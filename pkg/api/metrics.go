package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Store operation metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	messagesTotal          prometheus.Gauge
	lastMessageID          prometheus.Gauge
	diskSpaceBytes         prometheus.Gauge

	authRequestsTotal *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgstore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msgstore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "msgstore_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		storeOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgstore_store_operations_total",
				Help: "Total number of message operations",
			},
			[]string{"operation", "status"},
		),

		storeOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "msgstore_store_operation_duration_seconds",
				Help:    "Message operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		messagesTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "msgstore_messages_total",
				Help: "Number of stored messages",
			},
		),

		lastMessageID: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "msgstore_last_message_id",
				Help: "Last allocated message id",
			},
		),

		diskSpaceBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "msgstore_disk_space_bytes",
				Help: "Disk space used by the durable memory",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgstore_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "msgstore_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a message operation
func (m *Metrics) RecordStoreOperation(operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeOperationsTotal.WithLabelValues(operation, status(success)).Inc()
	m.storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStoreStats updates the store gauges
func (m *Metrics) UpdateStoreStats(messages int, lastID uint64, diskSpace uint64) {
	if m == nil {
		return
	}
	m.messagesTotal.Set(float64(messages))
	m.lastMessageID.Set(float64(lastID))
	m.diskSpaceBytes.Set(float64(diskSpace))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	if m == nil {
		return
	}
	m.healthChecksTotal.WithLabelValues(status(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
