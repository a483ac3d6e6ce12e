package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics collection for job
// execution. All metrics are namespaced "imageflow_".
//
// Metrics exposed:
//
//  1. passes_total (counter): cumulative fixed-point outer-loop passes run
//     across every job sharing this collector.
//
//  2. node_ticks (histogram): wall-clock ticks attributed to a node's
//     execute call. Labeled by node kind (decoder/encoder/operation).
//
//  3. fully_executed (gauge): 1 after the most recent Execute call left
//     the graph fully executed, 0 after one failed with
//     KindMaxPassesExceeded.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewMetrics(registry)
//	job := graph.NewJob(graph.WithMetrics(metrics))
type Metrics struct {
	passes        prometheus.Counter
	nodeTicks     *prometheus.HistogramVec
	fullyExecuted prometheus.Gauge

	enabled bool
}

// NewMetrics creates and registers job-execution metrics with registry.
// Passing a nil registry returns a disabled collector that records
// nothing — useful as the zero-configuration default so jobs never need a
// Prometheus dependency unless the caller wants one.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return &Metrics{enabled: false}
	}

	return &Metrics{
		enabled: true,
		passes: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "imageflow",
			Name:      "passes_total",
			Help:      "Cumulative fixed-point outer-loop passes run.",
		}),
		nodeTicks: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imageflow",
			Name:      "node_ticks",
			Help:      "Wall-clock ticks (nanoseconds) attributed to a node's execute call.",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		}, []string{"node_kind"}),
		fullyExecuted: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Namespace: "imageflow",
			Name:      "fully_executed",
			Help:      "1 if the most recently observed graph was fully executed, 0 otherwise.",
		}),
	}
}

func (m *Metrics) observePass() {
	if !m.enabled {
		return
	}
	m.passes.Inc()
}

func (m *Metrics) observeNodeTicks(t NodeType, ticks int64) {
	if !m.enabled {
		return
	}
	m.nodeTicks.WithLabelValues(nodeTypeLabel(t)).Observe(float64(ticks))
}

func (m *Metrics) observeFullyExecuted(v bool) {
	if !m.enabled {
		return
	}
	if v {
		m.fullyExecuted.Set(1)
	} else {
		m.fullyExecuted.Set(0)
	}
}

func nodeTypeLabel(t NodeType) string {
	switch t {
	case NodeDecoder:
		return "decoder"
	case NodeEncoder:
		return "encoder"
	case NodeNull:
		return "null"
	default:
		return "operation"
	}
}
