package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hazardtable"

// Metrics holds the Prometheus collectors of a derivation run. Each Metrics
// owns its registry so that runs and tests never collide on registration.
type Metrics struct {
	RowsDerived     prometheus.Counter
	MalformedCurves prometheus.Counter
	DeriveDuration  prometheus.Histogram

	TdFits        *prometheus.CounterVec // labels: outcome={fitted,skipped,empty_domain}
	TdFitDuration prometheus.Histogram
	FlooredRows   *prometheus.CounterVec // labels: parameter={pga,sas,psv,td}
	TableCache    *prometheus.CounterVec // labels: result={hit,miss}

	registry *prometheus.Registry
}

// NewMetrics creates and registers all derivation metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_derived_total",
			Help:      "Published parameter rows produced by derive runs.",
		}),
		MalformedCurves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_curves_total",
			Help:      "Hazard curves that could not be interpolated.",
		}),
		DeriveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "derive_duration_seconds",
			Help:      "Duration of a complete derive run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		TdFits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "td_fits_total",
			Help:      "Td grid searches by outcome.",
		}, []string{"outcome"}),
		TdFitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "td_fit_duration_seconds",
			Help:      "Duration of a single Td grid search.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		FlooredRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "floored_rows_total",
			Help:      "Rows raised to the controlling-site floor, by parameter.",
		}, []string{"parameter"}),
		TableCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "table_cache_total",
			Help:      "Derived-table cache lookups by result.",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RowsDerived,
		m.MalformedCurves,
		m.DeriveDuration,
		m.TdFits,
		m.TdFitDuration,
		m.FlooredRows,
		m.TableCache,
	)
	return m
}

// Gatherer exposes the registry for scraping or inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
