package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "filing_tables"

// Metrics counts per-table outcomes of a run.
type Metrics struct {
	tables   *prometheus.CounterVec
	warnings prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates the run metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tables_total",
			Help:      "Tables processed, by outcome.",
		}, []string{"outcome"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_warnings_total",
			Help:      "Warnings recorded on extracted documents.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "table_duration_seconds",
			Help:      "Time spent on one table, including sinks.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.tables, m.warnings, m.duration)
	return m
}

func (m *Metrics) observe(start time.Time, res outcome) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
	if res.err != nil {
		m.tables.WithLabelValues("failed").Inc()
		return
	}
	m.tables.WithLabelValues("succeeded").Inc()
	m.warnings.Add(float64(len(res.doc.Warnings)))
}
