// Package metrics exposes Prometheus counters for searches and storage.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a
// valid no-op observer.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	lookups        *prometheus.CounterVec
	summaries      *prometheus.CounterVec
	historyWrites  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New registers the researchlens collectors plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlens_searches_total",
			Help: "Aggregated searches by mode.",
		}, []string{"mode"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "researchlens_search_duration_seconds",
			Help:    "End-to-end aggregation latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"mode"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlens_lookups_total",
			Help: "External lookups by kind and outcome (ok or placeholder).",
		}, []string{"kind", "outcome"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlens_summaries_total",
			Help: "Summaries by outcome (provider or extractive).",
		}, []string{"outcome"}),
		historyWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlens_history_writes_total",
			Help: "Detached history writes by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlens_http_requests_total",
			Help: "HTTP requests by route pattern and status class.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.searches, m.searchDuration, m.lookups, m.summaries, m.historyWrites, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSearch(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(mode).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLookup(kind string, degraded bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "placeholder"
	}
	m.lookups.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveSummary(fallback bool) {
	if m == nil {
		return
	}
	outcome := "provider"
	if fallback {
		outcome = "extractive"
	}
	m.summaries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHistoryWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.historyWrites.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts an HTTP request. status is bucketed into 2xx..5xx.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	code := "other"
	if status >= 100 && status < 600 {
		code = strconv.Itoa(status/100) + "xx"
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
