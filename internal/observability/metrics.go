package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPErrorsTotal        *prometheus.CounterVec
	AuthenticationsTotal   *prometheus.CounterVec
	AuthorizationsTotal    *prometheus.CounterVec
	LoginThrottledTotal    prometheus.Counter
	SessionOperationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agservice_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agservice_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agservice_http_errors_total",
				Help: "Requests that ended in an error envelope, by error code",
			},
			[]string{"method", "path", "code"},
		),
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agservice_authentications_total",
				Help: "Per-request credential resolution outcomes",
			},
			[]string{"outcome"},
		),
		AuthorizationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agservice_authorizations_total",
				Help: "Route access decisions",
			},
			[]string{"decision"},
		),
		LoginThrottledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agservice_login_throttled_total",
				Help: "Login attempts rejected by the throttle",
			},
		),
		SessionOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agservice_session_operations_total",
				Help: "Login, refresh, logout and signup results",
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.AuthenticationsTotal,
		m.AuthorizationsTotal,
		m.LoginThrottledTotal,
		m.SessionOperationsTotal,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordAuthentication counts how a request's credentials resolved.
func (m *Metrics) RecordAuthentication(outcome string) {
	if m == nil {
		return
	}
	m.AuthenticationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthorization counts route access decisions.
func (m *Metrics) RecordAuthorization(decision string) {
	if m == nil {
		return
	}
	m.AuthorizationsTotal.WithLabelValues(decision).Inc()
}

// RecordLoginThrottled counts throttled login attempts.
func (m *Metrics) RecordLoginThrottled() {
	if m == nil {
		return
	}
	m.LoginThrottledTotal.Inc()
}

// RecordSessionOperation counts session lifecycle results.
func (m *Metrics) RecordSessionOperation(operation, result string) {
	if m == nil {
		return
	}
	m.SessionOperationsTotal.WithLabelValues(operation, result).Inc()
}
