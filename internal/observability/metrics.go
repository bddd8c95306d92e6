package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Gate decision outcomes.
const (
	OutcomeAllow        = "allow"
	OutcomeAnonymous    = "anonymous"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeBanned       = "banned"
	OutcomeError        = "error"
)

// Metrics holds the Prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forum_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_http_errors_total",
				Help: "Total number of requests that ended in an error response",
			},
			[]string{"route", "method", "code"},
		),
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forum_auth_gate_decisions_total",
				Help: "Total number of auth gate decisions",
			},
			[]string{"gate", "outcome"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.errors, m.gateDecisions)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordGateDecision counts the outcome of an auth gate.
func (m *Metrics) RecordGateDecision(gate, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(gate, outcome).Inc()
}

// GateDecisions exposes the gate counter for tests and dashboards.
func (m *Metrics) GateDecisions() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.gateDecisions
}
