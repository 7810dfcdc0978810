package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

// Metrics stores application metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestsInProgress prometheus.Gauge
	scansTotal         *prometheus.CounterVec
	persistFailures    *prometheus.CounterVec
	rateLimited        prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberguard_http_requests_total",
			Help: "HTTP requests by status class.",
		}, []string{"code"}),
		requestsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyberguard_http_requests_in_progress",
			Help: "HTTP requests currently being served.",
		}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberguard_scans_ingested_total",
			Help: "Scans ingested by type and risk level.",
		}, []string{"type", "level"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberguard_persist_failures_total",
			Help: "Failed writes to a document table.",
		}, []string{"table"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyberguard_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestsInProgress,
		m.scansTotal,
		m.persistFailures,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ScanIngested implements the scan service observer.
func (m *Metrics) ScanIngested(t scans.Type, level scans.RiskLevel) {
	m.scansTotal.WithLabelValues(string(t), string(level)).Inc()
}

// PersistFailed implements the scan service observer.
func (m *Metrics) PersistFailed(table string) {
	m.persistFailures.WithLabelValues(table).Inc()
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MetricsMiddleware tracks request metrics
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsInProgress.Inc()
		defer m.requestsInProgress.Dec()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		m.requestsTotal.WithLabelValues(strconv.Itoa(wrapped.statusCode/100) + "xx").Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
