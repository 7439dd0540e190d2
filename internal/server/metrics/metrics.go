// Package metrics exposes Prometheus collectors for authentication outcomes,
// gate decisions and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and the gate report to.
type Recorder interface {
	AuthAttempt(operation, outcome string)
	AccountLocked()
	GateDecision(decision string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) AuthAttempt(string, string) {}
func (Nop) AccountLocked()             {}
func (Nop) GateDecision(string)        {}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	AuthAttemptsTotal    *prometheus.CounterVec
	AccountLockoutsTotal prometheus.Counter
	GateDecisionsTotal   *prometheus.CounterVec

	DenylistEvictionsTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_auth_attempts_total",
				Help: "Authentication operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		AccountLockoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bizledger_account_lockouts_total",
				Help: "Accounts locked after too many failed logins",
			},
		),
		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_gate_decisions_total",
				Help: "Request gate decisions",
			},
			[]string{"decision"},
		),
		DenylistEvictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bizledger_denylist_evictions_total",
				Help: "Revoked tokens dropped from the in-memory denylist before expiry",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bizledger_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bizledger_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	m.registry.MustRegister(
		m.AuthAttemptsTotal,
		m.AccountLockoutsTotal,
		m.GateDecisionsTotal,
		m.DenylistEvictionsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) AuthAttempt(operation, outcome string) {
	m.AuthAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AccountLocked() {
	m.AccountLockoutsTotal.Inc()
}

func (m *Metrics) GateDecision(decision string) {
	m.GateDecisionsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) DenylistEvicted() {
	m.DenylistEvictionsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware instruments HTTP requests
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
