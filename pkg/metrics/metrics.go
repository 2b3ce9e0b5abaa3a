// Package metrics provides Prometheus metrics for dataset operations:
// entity write/read counters, operation latency and table memory usage.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records dataset operation metrics. All datasets in a process
// share one collector; series are split by the dataset label.
type Collector struct {
	entitiesWritten *prometheus.CounterVec
	entitiesRead    *prometheus.CounterVec
	opDuration      *prometheus.HistogramVec
	tableMemory     *prometheus.GaugeVec
}

var (
	defaultCollector *Collector
	defaultOnce      sync.Once
)

// Default returns the process-wide collector, registering its metrics on
// the default Prometheus registry on first use.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector(prometheus.DefaultRegisterer)
	})
	return defaultCollector
}

// NewCollector creates a collector registered on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		entitiesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kite_entities_written_total",
				Help: "Total entities decomposed and written",
			},
			[]string{"dataset"},
		),
		entitiesRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kite_entities_read_total",
				Help: "Total entity reads by result",
			},
			[]string{"dataset", "result"},
		),
		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kite_operation_duration_seconds",
				Help:    "Dataset operation latency",
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
			},
			[]string{"dataset", "operation"},
		),
		tableMemory: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kite_table_memory_bytes",
				Help: "Approximate memory held by the backing column table",
			},
			[]string{"dataset"},
		),
	}
}

// RecordWrite records one successful entity write.
func (c *Collector) RecordWrite(dataset string, duration time.Duration) {
	c.entitiesWritten.WithLabelValues(dataset).Inc()
	c.opDuration.WithLabelValues(dataset, "put").Observe(duration.Seconds())
}

// RecordRead records one entity read. Misses are counted separately from
// hits.
func (c *Collector) RecordRead(dataset string, hit bool, duration time.Duration) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	c.entitiesRead.WithLabelValues(dataset, result).Inc()
	c.opDuration.WithLabelValues(dataset, "get").Observe(duration.Seconds())
}

// SetTableMemory reports the current size of a dataset's column table.
func (c *Collector) SetTableMemory(dataset string, bytes int64) {
	c.tableMemory.WithLabelValues(dataset).Set(float64(bytes))
}
