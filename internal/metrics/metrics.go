// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "healthtrends"

var (
	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingestion",
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each ingestion stage.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})

	jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingestion",
		Name:      "jobs_total",
		Help:      "Ingestion jobs by terminal status.",
	}, []string{"status"})

	rowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingestion",
		Name:      "rows_total",
		Help:      "Rows handled by the table builder, by table and outcome.",
	}, []string{"table", "outcome"})

	lastIngestGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ingestion",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful ingestion.",
	})

	summaryRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "summary",
		Name:      "requests_total",
		Help:      "Summary queries by data domain and cache result.",
	}, []string{"domain", "cache"})

	dbConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "connections",
		Help:      "Database pool connections by state.",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(stageDuration, jobsTotal, rowsTotal, lastIngestGauge, summaryRequests, dbConnections)
}

// ObserveStage records how long an ingestion stage took.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Timer returns a func that records the time since Timer was called.
func Timer(stage string) func() {
	start := time.Now()
	return func() { ObserveStage(stage, time.Since(start)) }
}

// RecordJob counts a finished job.
func RecordJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// RecordRows counts kept and dropped rows for one table build.
func RecordRows(table string, kept, dropped, warnings int) {
	rowsTotal.WithLabelValues(table, "kept").Add(float64(kept))
	rowsTotal.WithLabelValues(table, "dropped").Add(float64(dropped))
	rowsTotal.WithLabelValues(table, "coerced").Add(float64(warnings))
}

// RecordIngestSuccess updates the success watermark.
func RecordIngestSuccess(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastIngestGauge.Set(float64(ts.Unix()))
}

// RecordSummary counts a summary query. hit reports whether it was served
// from cache.
func RecordSummary(domain string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	summaryRequests.WithLabelValues(domain, result).Inc()
}

// RecordDBPool publishes connection pool counts.
func RecordDBPool(inUse, idle, open int) {
	dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	dbConnections.WithLabelValues("idle").Set(float64(idle))
	dbConnections.WithLabelValues("open").Set(float64(open))
}
