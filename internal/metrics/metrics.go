// Package metrics defines the Prometheus metrics exported by job-radar.
package metrics

import (
	"time"

	"github.com/jonathan/job-radar/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "job_radar"

	// Labels
	sourceLabel  = "source"
	reasonLabel  = "reason"
	outcomeLabel = "outcome"
)

// Skip reasons
const (
	ReasonTitle     = "title"
	ReasonLocation  = "location"
	ReasonSeniority = "seniority"
)

/**
* Metrics definition
**/
var jobsFoundMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scrape",
		Name:      "jobs_found_total",
		Help:      "listings returned by source adapters after filtering",
	},
	[]string{sourceLabel},
)

var jobsNewMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scrape",
		Name:      "jobs_new_total",
		Help:      "listings inserted for the first time",
	},
	[]string{sourceLabel},
)

var jobsSkippedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scrape",
		Name:      "jobs_skipped_total",
		Help:      "listings dropped by the inclusion filters, by reason",
	},
	[]string{sourceLabel, reasonLabel},
)

var runsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scrape",
		Name:      "runs_total",
		Help:      "scrape runs by final status",
	},
	[]string{sourceLabel, outcomeLabel},
)

var runDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scrape",
		Name:      "run_duration_seconds",
		Help:      "wall time of one source scrape",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{sourceLabel},
)

var scoresMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scoring",
		Name:      "jobs_total",
		Help:      "judge outcomes per job",
	},
	[]string{outcomeLabel},
)

// ObserveRun records the outcome of one source scrape.
func ObserveRun(source, status string, result types.RunResult, elapsed time.Duration) {
	runsMetric.With(prometheus.Labels{sourceLabel: source, outcomeLabel: status}).Inc()
	runDurationMetric.With(prometheus.Labels{sourceLabel: source}).Observe(elapsed.Seconds())

	labels := prometheus.Labels{sourceLabel: source}
	jobsFoundMetric.With(labels).Add(float64(result.JobsFound))
	jobsNewMetric.With(labels).Add(float64(result.JobsNew))

	skipped := map[string]int{
		ReasonTitle:     result.Skipped.Title,
		ReasonLocation:  result.Skipped.Location,
		ReasonSeniority: result.Skipped.Seniority,
	}
	for reason, count := range skipped {
		jobsSkippedMetric.With(prometheus.Labels{sourceLabel: source, reasonLabel: reason}).Add(float64(count))
	}
}

// IncreaseScoreOutcome counts one judged job; outcome is "scored" or "failed".
func IncreaseScoreOutcome(outcome string) {
	scoresMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsFoundMetric)
	prometheus.MustRegister(jobsNewMetric)
	prometheus.MustRegister(jobsSkippedMetric)
	prometheus.MustRegister(runsMetric)
	prometheus.MustRegister(runDurationMetric)
	prometheus.MustRegister(scoresMetric)
}
