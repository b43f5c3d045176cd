// Package telemetry exposes the service's Prometheus metrics. A nil *Metrics
// is valid and records nothing.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codegrant"

// OutcomeSuccess labels a successful attempt. Failures are labelled with the
// error kind code.
const OutcomeSuccess = "success"

type Metrics struct {
	registry *prometheus.Registry

	codesIssued   prometheus.Counter
	collisions    prometheus.Counter
	redemptions   *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// New registers the service metrics, plus Go runtime and process collectors,
// on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_issued_total",
			Help:      "Authorization codes successfully issued.",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated codes discarded because the fingerprint already existed.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_redemptions_total",
			Help:      "Authorization code redemption attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_verifications_total",
			Help:      "Client verification attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.codesIssued,
		m.collisions,
		m.redemptions,
		m.verifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) CodeCollision() {
	if m == nil {
		return
	}
	m.collisions.Inc()
}

// CodeRedeemed records a redemption attempt. outcome is OutcomeSuccess or a
// stable error identifier.
func (m *Metrics) CodeRedeemed(outcome string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(outcome).Inc()
}

// ClientVerified records a client or redirect verification attempt.
func (m *Metrics) ClientVerified(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}
