package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dispersion engine.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	ActiveReleases prometheus.Gauge

	Calculations *prometheus.CounterVec // labels: outcome={success,error}
	QualityFlags prometheus.Counter

	WeatherFallbacks prometheus.Counter
	PublishErrors    prometheus.Counter
	ChemicalCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.ActiveReleases,
		m.Calculations,
		m.QualityFlags,
		m.WeatherFallbacks,
		m.PublishErrors,
		m.ChemicalCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "cycles_total",
			Help:      "Total recalculation cycles started.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dispersion",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete recalculation cycle over all active releases.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ActiveReleases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispersion",
			Name:      "active_releases",
			Help:      "Number of releases currently under periodic recalculation.",
		}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "calculations_total",
			Help:      "Dispersion calculations by outcome.",
		}, []string{"outcome"}),
		QualityFlags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "quality_flags_total",
			Help:      "Total data-quality flags attached to published results.",
		}),
		WeatherFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "weather_fallbacks_total",
			Help:      "Calculations that ran on conservative default weather.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish a calculation update.",
		}),
		ChemicalCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispersion",
			Name:      "chemical_cache_total",
			Help:      "Chemical property lookups by cache result.",
		}, []string{"result"}),
	}
}
