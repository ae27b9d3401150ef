// Package metrics holds the service's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	replenishments *prometheus.CounterVec
	accessDenied   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		replenishments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "replenishments_total",
			Help:      "Low-stock replenishment attempts by outcome.",
		}, []string{"outcome"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "access_denied_total",
			Help:      "Operations refused by the access resolver, by resource kind and capability.",
		}, []string{"resource", "capability"}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.replenishments,
		m.accessDenied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Replenishment(outcome string) {
	if m == nil {
		return
	}
	m.replenishments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccessDenied(resource, capability string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(resource, capability).Inc()
}
