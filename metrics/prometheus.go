package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bigsort"

// Metrics groups the collectors the sorter updates while running
type Metrics struct {
	RecordsRead   prometheus.Counter
	BytesRead     prometheus.Counter
	ChunksCreated prometheus.Counter
	MergesDone    prometheus.Counter
	MergeRounds   prometheus.Counter
	ActiveMerges  prometheus.Gauge
	MergeDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records read from the unsorted input",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "UTF-8 bytes of records read, separators excluded",
		}),
		ChunksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Sorted chunk files written by partitioning and merging",
		}),
		MergesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Completed two-way merges",
		}),
		MergeRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_rounds_total",
			Help:      "Completed rounds of concurrent merges",
		}),
		ActiveMerges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_merges",
			Help:      "Two-way merges currently running",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Wall time of a single two-way merge",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RecordsRead,
			m.BytesRead,
			m.ChunksCreated,
			m.MergesDone,
			m.MergeRounds,
			m.ActiveMerges,
			m.MergeDuration,
		)
	}
	return m
}
