package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "automatic_activities",
		Name:      "runs_total",
		Help:      "Generation runs by result (completed, skipped, failed).",
	}, []string{"result"})
	generatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "automatic_activities",
		Name:      "activities_total",
		Help:      "Activities handled by generation runs by outcome (created, duplicate, failed).",
	}, []string{"outcome"})
	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleet",
		Subsystem: "automatic_activities",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a generation run.",
		Buckets:   prometheus.DefBuckets,
	})
	lastRunGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Subsystem: "automatic_activities",
		Name:      "last_completed_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed generation run.",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, generatedTotal, runDuration, lastRunGauge)
}

func recordRun(result string, started time.Time) {
	runsTotal.WithLabelValues(result).Inc()
	runDuration.Observe(time.Since(started).Seconds())
	if result == "completed" {
		lastRunGauge.Set(float64(time.Now().Unix()))
	}
}

func recordActivities(s *RunSummary) {
	generatedTotal.WithLabelValues("created").Add(float64(s.ActivitiesCreated))
	generatedTotal.WithLabelValues("duplicate").Add(float64(s.DuplicatesSkipped))
	generatedTotal.WithLabelValues("failed").Add(float64(s.Failures))
}
