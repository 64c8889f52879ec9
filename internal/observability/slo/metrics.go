// Package slo tracks service level objectives for the ingestion pipeline.
// Gauges are updated after every run so alerting can compare them against
// the targets without recomputing ratios in PromQL.
package slo

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Targets for the ingestion pipeline.
const (
	// RunSuccessSLO is the target fraction of scheduled runs that complete
	// without a pipeline-level error (per-item failures do not count).
	RunSuccessSLO = 0.99

	// RunDurationSLO is the target upper bound for a full run in seconds.
	RunDurationSLO = 600.0

	// FreshnessSLO is the target maximum age of the newest successful run
	// in seconds. Runs every six hours leave headroom for one retry.
	FreshnessSLO = 8 * 60 * 60.0
)

var (
	// RunSuccessRatio tracks the fraction of recent runs that succeeded.
	RunSuccessRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_ingest_run_success_ratio",
			Help: "Fraction of recent ingest runs that succeeded (0-1), target: 0.99",
		},
	)

	// LastRunDuration tracks the duration of the most recent run in seconds.
	LastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_ingest_last_run_duration_seconds",
			Help: "Duration of the most recent ingest run in seconds, target: under 600",
		},
	)

	// LastSuccessAge tracks seconds since the last successful run. Updated
	// on every run; dashboards interpolate between runs with time().
	LastSuccessAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_ingest_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingest run",
		},
	)
)

// trackerWindow bounds how many recent runs contribute to the success ratio.
const trackerWindow = 50

// Tracker accumulates run outcomes and keeps the SLO gauges current.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	results []bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordRun records the outcome of one ingest run and updates the gauges.
func (t *Tracker) RecordRun(success bool, duration time.Duration) {
	t.mu.Lock()
	t.results = append(t.results, success)
	if len(t.results) > trackerWindow {
		t.results = t.results[len(t.results)-trackerWindow:]
	}
	succeeded := 0
	for _, ok := range t.results {
		if ok {
			succeeded++
		}
	}
	ratio := float64(succeeded) / float64(len(t.results))
	t.mu.Unlock()

	RunSuccessRatio.Set(ratio)
	LastRunDuration.Set(duration.Seconds())
	if success {
		LastSuccessAge.Set(float64(time.Now().Unix()))
	}
}

// SuccessRatio returns the current rolling success ratio. Returns 1 when no
// runs have been recorded yet.
func (t *Tracker) SuccessRatio() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.results) == 0 {
		return 1
	}
	succeeded := 0
	for _, ok := range t.results {
		if ok {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(t.results))
}
