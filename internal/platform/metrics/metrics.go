package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CertificatesIssued       *prometheus.CounterVec
	Verifications            *prometheus.CounterVec
	ChainCallDuration        *prometheus.HistogramVec
	ChainBreakerOpen         prometheus.Gauge
	Logins                   *prometheus.CounterVec
	TokensRefreshed          prometheus.Counter
	VerificationTokensIssued prometheus.Counter
	AuditEventsDropped       prometheus.Counter
	OutboxEventsPublished    prometheus.Counter
}

// New creates all metrics and registers them with reg.
// Production passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CertificatesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_certificates_issued_total",
			Help: "Certificate issuance attempts by outcome",
		}, []string{"outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_verifications_total",
			Help: "Certificate verifications by lookup method and result",
		}, []string{"method", "result"}),
		ChainCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credchain_chain_call_duration_seconds",
			Help:    "Latency of ledger calls by operation and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op", "outcome"}),
		ChainBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "credchain_chain_breaker_open",
			Help: "1 while the ledger circuit breaker is open",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credchain_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		TokensRefreshed: f.NewCounter(prometheus.CounterOpts{
			Name: "credchain_access_tokens_refreshed_total",
			Help: "Access tokens minted from refresh tokens",
		}),
		VerificationTokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "credchain_verification_tokens_issued_total",
			Help: "Shareable verification tokens created",
		}),
		AuditEventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "credchain_audit_events_dropped_total",
			Help: "Audit events that could not be recorded",
		}),
		OutboxEventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "credchain_outbox_events_published_total",
			Help: "Audit outbox rows relayed to the event stream",
		}),
	}
}

func (m *Metrics) IncCertificatesIssued(outcome string) {
	if m == nil {
		return
	}
	m.CertificatesIssued.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncVerification(method, result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(method, result).Inc()
}

func (m *Metrics) ObserveChainCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChainCallDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func (m *Metrics) SetChainBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.ChainBreakerOpen.Set(1)
		return
	}
	m.ChainBreakerOpen.Set(0)
}

func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTokensRefreshed() {
	if m == nil {
		return
	}
	m.TokensRefreshed.Inc()
}

func (m *Metrics) IncVerificationTokensIssued() {
	if m == nil {
		return
	}
	m.VerificationTokensIssued.Inc()
}

func (m *Metrics) IncAuditEventsDropped() {
	if m == nil {
		return
	}
	m.AuditEventsDropped.Inc()
}

func (m *Metrics) AddOutboxEventsPublished(n int) {
	if m == nil {
		return
	}
	m.OutboxEventsPublished.Add(float64(n))
}
