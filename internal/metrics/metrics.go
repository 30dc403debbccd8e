package metrics

// Package metrics exposes prometheus instruments for the authentication gate.

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the auth-related prometheus instruments.
type Metrics struct {
	LoginTotal          *prometheus.CounterVec
	SessionChecksTotal  *prometheus.CounterVec
	CleanupTotal        *prometheus.CounterVec
	HealthProbeDuration prometheus.Histogram
}

// New registers the auth instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_auth_login_total",
			Help: "Login attempts by outcome",
		}, []string{"result"}),
		SessionChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_auth_session_checks_total",
			Help: "Session verifications by outcome",
		}, []string{"result"}),
		CleanupTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_auth_cleanup_total",
			Help: "Compensating identity deletions by outcome",
		}, []string{"outcome"}),
		HealthProbeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_api_health_probe_duration_seconds",
			Help:    "Latency of downstream API health probes",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveLogin records a login outcome (success, invalid_credential, ...).
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginTotal.WithLabelValues(result).Inc()
}

// ObserveSessionCheck records a session verification outcome.
func (m *Metrics) ObserveSessionCheck(result string) {
	if m == nil {
		return
	}
	m.SessionChecksTotal.WithLabelValues(result).Inc()
}

// ObserveCleanup records a compensating delete outcome (ok or error).
func (m *Metrics) ObserveCleanup(outcome string) {
	if m == nil {
		return
	}
	m.CleanupTotal.WithLabelValues(outcome).Inc()
}

// ObserveHealthProbe records the duration of one downstream health probe.
func (m *Metrics) ObserveHealthProbe(seconds float64) {
	if m == nil {
		return
	}
	m.HealthProbeDuration.Observe(seconds)
}
