package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// the dashboard cache and domain events.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	loginAttempts   *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	notifications   prometheus.Counter
	reports         *prometheus.CounterVec
	auditDropped    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of grouped database work",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_messages_total",
			Help: "Messages stored by kind",
		}, []string{"kind"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_notifications_total",
			Help: "Notifications created for recipients",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Generated report files by format and type",
		}, []string{"format", "type"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_dropped_total",
			Help: "Audit entries that could not be queued",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.cacheLatency,
		m.cacheWrite,
		m.cacheLookups,
		m.dbQueryDuration,
		m.loginAttempts,
		m.messagesSent,
		m.notifications,
		m.reports,
		m.auditDropped,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the timing of a named group of queries.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// RecordMessage counts a stored message and its notifications.
func (m *MetricsService) RecordMessage(broadcast bool, recipients int) {
	if m == nil {
		return
	}
	kind := "direct"
	if broadcast {
		kind = "broadcast"
	}
	m.messagesSent.WithLabelValues(kind).Inc()
	m.notifications.Add(float64(recipients))
}

// RecordReport counts a generated report file.
func (m *MetricsService) RecordReport(format, reportType string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format, reportType).Inc()
}

// RecordAuditDropped counts an audit entry that was not queued.
func (m *MetricsService) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
