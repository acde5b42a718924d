package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	applierBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "applier",
		Name:      "blocks_total",
		Help:      "Count of blocks passed to the applier.",
	}, []string{"status"})
	applierProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "applier",
		Name:      "process_duration_seconds",
		Help:      "Duration of applying a block or a batch of blocks.",
		Buckets:   prometheus.ExponentialBuckets(.001, 2, 16),
	}, []string{"status"})
	applierRollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "applier",
		Name:      "rollbacks_total",
		Help:      "Count of fork rollbacks.",
	}, []string{"status"})
	applierRollbackDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "applier",
		Name:      "rollback_depth_blocks",
		Help:      "Number of blocks popped per rollback.",
		Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 25},
	})
)

// Applier tracks block application and rollbacks.
type Applier struct{}

// NewApplier creates an Applier metrics collector.
func NewApplier() *Applier {
	return &Applier{}
}

// ObserveProcess records applying blocks in one call.
func (m Applier) ObserveProcess(err error, blocks int, started time.Time) {
	s := status(err)
	applierBlocksTotal.WithLabelValues(s).Add(float64(blocks))
	applierProcessDuration.WithLabelValues(s).Observe(time.Since(started).Seconds())
}

// ObserveRollback records a rollback of depth blocks.
func (m Applier) ObserveRollback(err error, depth int, started time.Time) {
	applierRollbacksTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		applierRollbackDepth.Observe(float64(depth))
	}
}
