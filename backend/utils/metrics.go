package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lessons"

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	entitlements *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "route"},
		),
		entitlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "entitlement_events_total",
				Help:      "Payment confirmations processed, by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.entitlements)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) EntitlementOutcome(outcome string) {
	m.entitlements.WithLabelValues(outcome).Inc()
}

// EntitlementCounter exposes the per-outcome counter, mainly for tests.
func (m *Metrics) EntitlementCounter(outcome string) prometheus.Counter {
	return m.entitlements.WithLabelValues(outcome)
}
