// Package metrics counts validation work in a private prometheus
// registry, which may be written to a textfile for node exporter.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ptg_validator"

// Metrics holds metrics of a single validator run.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal     prometheus.Counter
	RecordsInvalid   prometheus.Counter
	RecordsMalformed prometheus.Counter
	Violations       *prometheus.CounterVec
	SchemaNodes      prometheus.Gauge
	CompileDuration  prometheus.Histogram
	ValidateDuration prometheus.Histogram
}

// New creates metrics registered in a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of documents read from data file",
		}),
		RecordsInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_invalid_total",
			Help:      "Total number of documents that do not conform with schema",
		}),
		RecordsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_malformed_total",
			Help:      "Total number of records that are not valid json",
		}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of failed keywords",
		}, []string{"keyword"}),
		SchemaNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_nodes",
			Help:      "Number of compiled schema nodes",
		}),
		CompileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time taken to load and compile schema",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		}),
		ValidateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validate_duration_seconds",
			Help:      "Time taken to validate a single document",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60, 300},
		}),
	}
	m.registry.MustRegister(
		m.RecordsTotal,
		m.RecordsInvalid,
		m.RecordsMalformed,
		m.Violations,
		m.SchemaNodes,
		m.CompileDuration,
		m.ValidateDuration,
	)
	return m
}

// Registry returns the registry holding m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCompile records time taken since start to compile a schema of
// n nodes.
func (m *Metrics) ObserveCompile(start time.Time, n int) {
	m.CompileDuration.Observe(time.Since(start).Seconds())
	m.SchemaNodes.Set(float64(n))
}

// ObserveRecord records a validated document and its failed keywords.
func (m *Metrics) ObserveRecord(start time.Time, keywords []string) {
	m.RecordsTotal.Inc()
	m.ValidateDuration.Observe(time.Since(start).Seconds())
	if len(keywords) > 0 {
		m.RecordsInvalid.Inc()
	}
	for _, kw := range keywords {
		m.Violations.WithLabelValues(kw).Inc()
	}
}

// ObserveMalformed records a record that could not be parsed.
func (m *Metrics) ObserveMalformed() {
	m.RecordsTotal.Inc()
	m.RecordsMalformed.Inc()
}

// WriteFile writes metrics to path in prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
