// Package prometheus implements the metrics collector on Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aescanero/cascade/internal/domain"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	runsSubmitted prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   prometheus.Histogram

	itemsExecuted *prometheus.CounterVec
	itemDuration  *prometheus.HistogramVec
	retries       *prometheus.CounterVec

	activeRuns      prometheus.Gauge
	executorLatency prometheus.Histogram
}

// NewCollector creates and registers the cascade metrics.
func NewCollector() *Collector {
	return &Collector{
		runsSubmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_runs_submitted_total",
				Help: "Total number of orchestration runs submitted",
			},
		),
		runsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_runs_completed_total",
				Help: "Total number of orchestration runs completed",
			},
			[]string{"status"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cascade_run_duration_seconds",
				Help:    "Orchestration run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),
		itemsExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_items_executed_total",
				Help: "Total number of work items executed per tier",
			},
			[]string{"tier", "status"},
		),
		itemDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cascade_item_duration_seconds",
				Help:    "Work item execution duration in seconds per tier",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"tier"},
		),
		retries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_item_retries_total",
				Help: "Total number of work item retries per tier",
			},
			[]string{"tier"},
		),
		activeRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_active_runs",
				Help: "Number of orchestration runs currently executing",
			},
		),
		executorLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cascade_executor_latency_seconds",
				Help:    "Latency of external executor calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
	}
}

// RecordRunSubmitted counts one submitted run.
func (c *Collector) RecordRunSubmitted() {
	c.runsSubmitted.Inc()
}

// RecordRunCompleted counts one finished run and observes its duration.
func (c *Collector) RecordRunCompleted(status domain.RunStatus, duration time.Duration) {
	c.runsCompleted.WithLabelValues(string(status)).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordItemExecuted counts one executed work item.
func (c *Collector) RecordItemExecuted(tier domain.Tier, status domain.Status, duration time.Duration) {
	c.itemsExecuted.WithLabelValues(string(tier), string(status)).Inc()
	c.itemDuration.WithLabelValues(string(tier)).Observe(duration.Seconds())
}

// RecordRetry counts one retry.
func (c *Collector) RecordRetry(tier domain.Tier) {
	c.retries.WithLabelValues(string(tier)).Inc()
}

// SetActiveRuns sets the in-flight run gauge.
func (c *Collector) SetActiveRuns(count int) {
	c.activeRuns.Set(float64(count))
}

// ObserveExecutorLatency observes one external executor call.
func (c *Collector) ObserveExecutorLatency(duration time.Duration) {
	c.executorLatency.Observe(duration.Seconds())
}
