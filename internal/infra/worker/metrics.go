package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mkk2026/Security.News.Scraper/internal/pkg/config"
)

// WorkerMetrics tracks the scheduled scrape job alongside the embedded
// worker config metrics.
//
// Job metrics:
//   - worker_cron_job_runs_total{status}: run counter (success/failure)
//   - worker_cron_job_duration_seconds: run duration histogram
//   - worker_cron_job_articles_ingested_total: new articles across all runs
//   - worker_cron_job_last_success_timestamp: Unix time of last clean run
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal             *prometheus.CounterVec
	CronJobDurationSeconds       prometheus.Histogram
	CronJobArticlesIngestedTotal prometheus.Counter
	CronJobLastSuccessTimestamp  prometheus.Gauge
}

// NewWorkerMetrics registers the worker metric set with the default
// Prometheus registry.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobArticlesIngestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_articles_ingested_total",
			Help: "Total number of new articles ingested across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// RecordJobRun counts one job run. Status is "success" or "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one job run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordArticlesIngested adds a run's new-article count to the total.
func (m *WorkerMetrics) RecordArticlesIngested(count int) {
	m.CronJobArticlesIngestedTotal.Add(float64(count))
}

// RecordLastSuccess marks the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
