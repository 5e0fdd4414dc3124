package live

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the live update loop
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal      prometheus.Counter
	MissedTicks     prometheus.Counter
	Reseeds         prometheus.Counter
	PathsEliminated prometheus.Counter
	Survivors       prometheus.Gauge
	FetchDuration   prometheus.Histogram
}

// NewMetrics creates and registers all live-loop metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwatch_ticks_total",
			Help: "Total number of completed update ticks",
		}),
		MissedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwatch_missed_ticks_total",
			Help: "Ticks skipped because the observation fetch failed or timed out",
		}),
		Reseeds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwatch_reseeds_total",
			Help: "Full ensemble regenerations after the alive set emptied",
		}),
		PathsEliminated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathwatch_paths_eliminated_total",
			Help: "Simulated paths eliminated across the run",
		}),
		Survivors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pathwatch_surviving_paths",
			Help: "Number of currently alive simulated paths",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathwatch_fetch_duration_seconds",
			Help:    "Duration of live observation fetches in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	m.registry.MustRegister(
		m.TicksTotal,
		m.MissedTicks,
		m.Reseeds,
		m.PathsEliminated,
		m.Survivors,
		m.FetchDuration,
	)
	return m
}

// Handler exposes the metrics registry for a /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
