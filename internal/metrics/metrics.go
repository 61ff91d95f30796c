// Package metrics exposes Prometheus counters and histograms for queries
// and capability delegations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wealthhorizon"

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal       *prometheus.CounterVec
	QueryDuration      *prometheus.HistogramVec
	DelegationsTotal   *prometheus.CounterVec
	DelegationDuration *prometheus.HistogramVec
	HTTPRequestsTotal  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries processed, by route and outcome.",
		}, []string{"route", "status"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		DelegationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegations_total",
			Help:      "Capability operations invoked, by outcome.",
		}, []string{"capability", "operation", "status"}),
		DelegationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delegation_duration_seconds",
			Help:      "Capability operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"capability", "operation"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "code"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveQuery records one processed query.
func (m *Metrics) ObserveQuery(route string, d time.Duration, err error) {
	m.QueriesTotal.WithLabelValues(route, status(err)).Inc()
	m.QueryDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveDelegation records one capability call.
func (m *Metrics) ObserveDelegation(capability, operation string, d time.Duration, err error) {
	m.DelegationsTotal.WithLabelValues(capability, operation, status(err)).Inc()
	m.DelegationDuration.WithLabelValues(capability, operation).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
