package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "batches_total",
		Help:      "Count of catch-up batches.",
	}, []string{"status"})
	syncBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "batch_duration_seconds",
		Help:      "Duration of applying a catch-up batch.",
		Buckets:   prometheus.ExponentialBuckets(.05, 2, 12),
	}, []string{"status"})
	syncBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "batch_size_blocks",
		Help:      "Number of blocks per catch-up batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
	})
	syncLiveBlockDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "live_block_duration_seconds",
		Help:      "Duration of applying and committing a live block.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})
	syncHeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "head_block",
		Help:      "Last applied block height.",
	})
	syncHeadLag = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "head_lag_blocks",
		Help:      "Blocks between the upstream head and the last applied block.",
	})
	syncForksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "forks_total",
		Help:      "Count of observed forks by kind.",
	}, []string{"kind"})
	syncPoppedBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "popped_blocks_total",
		Help:      "Count of blocks popped while recovering from forks.",
	})
	syncPhase = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "phase",
		Help:      "Current sync phase, 1 for the active one.",
	}, []string{"phase"})
)

// Sync tracks the sync driver.
type Sync struct{}

// NewSync creates a Sync metrics collector.
func NewSync() *Sync {
	return &Sync{}
}

// ObserveBatch records a catch-up batch.
func (m Sync) ObserveBatch(err error, blocks int, started time.Time) {
	s := status(err)
	syncBatchTotal.WithLabelValues(s).Inc()
	syncBatchDuration.WithLabelValues(s).Observe(time.Since(started).Seconds())
	syncBatchSize.Observe(float64(blocks))
}

// ObserveBlock records a committed live block and the upstream head seen with it.
func (m Sync) ObserveBlock(num, head uint64, started time.Time) {
	syncLiveBlockDuration.Observe(time.Since(started).Seconds())
	syncHeadBlock.Set(float64(num))
	var lag uint64
	if head > num {
		lag = head - num
	}
	syncHeadLag.Set(float64(lag))
}

// ObserveFork records a fork and the number of blocks it popped.
func (m Sync) ObserveFork(kind string, popped int) {
	syncForksTotal.WithLabelValues(kind).Inc()
	syncPoppedBlocksTotal.Add(float64(popped))
}

// ObservePhase marks phase as the active one.
func (m Sync) ObservePhase(phase string) {
	syncPhase.Reset()
	syncPhase.WithLabelValues(phase).Set(1)
}
