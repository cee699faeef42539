package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each Server owns its
// registry so tests can run servers side by side.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	scans     *prometheus.HistogramVec
	citations *prometheus.CounterVec
	wsClients prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibleref",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		scans: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bibleref",
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning one input.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		citations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibleref",
			Name:      "citations_total",
			Help:      "Citations found, by operation.",
		}, []string{"operation"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bibleref",
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.scans, m.citations, m.wsClients,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// instrument counts requests to route by method and status code.
func (m *Metrics) instrument(route string, h http.HandlerFunc) http.Handler {
	return promhttp.InstrumentHandlerCounter(
		m.requests.MustCurryWith(prometheus.Labels{"route": route}), h)
}

func (m *Metrics) observeScan(operation string, d time.Duration, citations int) {
	m.scans.WithLabelValues(operation).Observe(d.Seconds())
	m.citations.WithLabelValues(operation).Add(float64(citations))
}
