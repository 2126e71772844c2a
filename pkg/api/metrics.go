package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyberkunju/NREGA-sub000/pkg/kit"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

// Metrics holds the lookup server's Prometheus collectors on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry
	lookups  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	reloads  *prometheus.CounterVec
}

// NewMetrics creates the collectors. Artifact gauges read the store on
// every scrape, so they follow reloads.
func NewMetrics(store *registry.Store) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "districtmap",
			Name:      "lookups_total",
			Help:      "District lookups by transport and outcome (mapped, excluded, unknown).",
		}, []string{"transport", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "districtmap",
			Name:      "endpoint_duration_seconds",
			Help:      "Endpoint latency.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"endpoint"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "districtmap",
			Name:      "artifact_reloads_total",
			Help:      "Artifact reload attempts by result.",
		}, []string{"result"}),
	}

	gauge := func(name, help string, value func(registry.Summary) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "districtmap",
			Subsystem: "artifact",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(store.Summary()) })
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups, m.latency, m.reloads,
		gauge("coverage_percent", "Share of source regions mapped.", func(s registry.Summary) float64 { return s.CoveragePercent }),
		gauge("mapped", "Mapped source regions.", func(s registry.Summary) float64 { return float64(s.Mapped) }),
		gauge("excluded", "Excluded source regions.", func(s registry.Summary) float64 { return float64(s.Excluded) }),
		gauge("collisions", "Targets shared by several source regions.", func(s registry.Summary) float64 { return float64(s.Collisions) }),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records the latency of the named endpoint.
func (m *Metrics) Instrument(name string) kit.Middleware {
	obs := m.latency.WithLabelValues(name)
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			defer func() { obs.Observe(time.Since(start).Seconds()) }()
			return next(ctx, request)
		}
	}
}

// ObserveLookup counts one lookup outcome.
func (m *Metrics) ObserveLookup(ctx context.Context, outcome string) {
	m.lookups.WithLabelValues(kit.GetTransport(ctx), outcome).Inc()
}

// ObserveReload counts one reload attempt.
func (m *Metrics) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
}
