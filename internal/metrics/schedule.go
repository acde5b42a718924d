package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scheduleMissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "block_schedule",
		Name:      "missed_slots_total",
		Help:      "Count of block slots skipped by witnesses.",
	})
	scheduleDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "block_schedule",
		Name:      "drift_seconds",
		Help:      "Current correction applied to the expected block time.",
	})
	scheduleIdleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "block_schedule",
		Name:      "idle_seconds",
		Help:      "Time spent waiting for the next block slot.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
	})
)

// Schedule tracks block schedule adjustments.
type Schedule struct{}

// NewSchedule creates a Schedule metrics collector.
func NewSchedule() *Schedule {
	return &Schedule{}
}

// ObserveMissed records skipped slots.
func (m Schedule) ObserveMissed(slots uint64) {
	scheduleMissedTotal.Add(float64(slots))
}

// ObserveDrift records the current drift.
func (m Schedule) ObserveDrift(drift time.Duration) {
	scheduleDrift.Set(drift.Seconds())
}

// ObserveIdle records a wait for the next slot.
func (m Schedule) ObserveIdle(wait time.Duration) {
	scheduleIdleDuration.Observe(wait.Seconds())
}
