// Package metrics exposes the console's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "console"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	referenceLookups *prometheus.CounterVec
	billCreations    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.referenceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_lookup_total",
			Help:      "Customer and product lookups made while building bill details.",
		},
		[]string{"relation", "outcome"},
	)

	m.billCreations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_creation_total",
			Help:      "Bill creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	m.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of calls to the remote services.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "code"},
	)

	m.registry.MustRegister(m.referenceLookups, m.billCreations, m.upstreamDuration)
	return m
}

// ReferenceLookup records one customer or product lookup.
func (m *Metrics) ReferenceLookup(relation string, ok bool) {
	if m == nil {
		return
	}
	outcome := "found"
	if !ok {
		outcome = "error"
	}
	m.referenceLookups.WithLabelValues(relation, outcome).Inc()
}

func (m *Metrics) BillCreation(outcome string) {
	if m == nil {
		return
	}
	m.billCreations.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records a remote call; statusCode 0 means the call never
// got a response.
func (m *Metrics) ObserveUpstream(service, method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.upstreamDuration.WithLabelValues(service, method, code).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
