// Package metrics defines the Prometheus collectors for Steam Gametime
// Hub: upstream call outcomes, cache effectiveness, and admission-gate
// saturation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles all collectors. A nil *Metrics is valid everywhere it
// is accepted; every method no-ops on a nil receiver so tests and tools
// can skip registration.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gametime_hub",
			Subsystem: "steam",
			Name:      "upstream_requests_total",
			Help:      "Outbound Steam API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gametime_hub",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by cache namespace.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gametime_hub",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by cache namespace.",
		}, []string{"cache"}),
	}

	reg.MustRegister(m.upstreamRequests, m.cacheHits, m.cacheMisses)
	return m
}

// RegisterGateGauge exposes an admission gate's in-flight permit count.
func RegisterGateGauge(reg prometheus.Registerer, gate string, inFlight func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "gametime_hub",
		Subsystem:   "rategate",
		Name:        "in_flight",
		Help:        "Permits currently held on the admission gate.",
		ConstLabels: prometheus.Labels{"gate": gate},
	}, func() float64 {
		return float64(inFlight())
	}))
}

// UpstreamRequest records one outbound call to endpoint with the given
// outcome ("ok", "timeout", "rate_limited", "denied", "server_error",
// "malformed").
func (m *Metrics) UpstreamRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// CacheHit records a hit on the named cache.
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss records a miss on the named cache.
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}
