// Package metrics holds the per-run Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides counters for one annotation run. A nil *Metrics is a
// no-op.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsParsed   *prometheus.CounterVec
	RecordsSkipped  *prometheus.CounterVec
	RecordsFiltered *prometheus.CounterVec
	MergeRecords    *prometheus.CounterVec
	MergeDuration   *prometheus.HistogramVec
}

// New creates a Metrics instance on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		RecordsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geneannot_records_parsed_total",
			Help: "Records produced by the parser, by source prefix",
		}, []string{"prefix"}),

		RecordsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geneannot_records_skipped_total",
			Help: "Malformed units skipped by the parser, by source prefix",
		}, []string{"prefix"}),

		RecordsFiltered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geneannot_records_filtered_total",
			Help: "Records removed by filters or projection, by source prefix",
		}, []string{"prefix"}),

		MergeRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geneannot_merge_records_total",
			Help: "Records in the accumulated set after each merge or append, by source prefix",
		}, []string{"prefix"}),

		MergeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geneannot_merge_duration_seconds",
			Help:    "Duration of merging one source into the annotation",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"prefix"}),
	}
}

// ObserveSource records the per-source parse counters.
func (m *Metrics) ObserveSource(prefix string, parsed, skipped, filtered int) {
	if m != nil {
		m.RecordsParsed.WithLabelValues(prefix).Add(float64(parsed))
		m.RecordsSkipped.WithLabelValues(prefix).Add(float64(skipped))
		m.RecordsFiltered.WithLabelValues(prefix).Add(float64(filtered))
	}
}

// ObserveMerge records the outcome of folding one source.
func (m *Metrics) ObserveMerge(prefix string, records int, d time.Duration) {
	if m != nil {
		m.MergeRecords.WithLabelValues(prefix).Add(float64(records))
		m.MergeDuration.WithLabelValues(prefix).Observe(d.Seconds())
	}
}

// WriteFile writes the registry in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
