// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogue_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Sync
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_sync_runs_total",
			Help: "Total number of sync runs by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogue_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)

	SyncRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_sync_rows_total",
			Help: "Rows written by sync runs, by action",
		},
		[]string{"source", "action"}, // inserted, updated, archived
	)

	SyncSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_sync_skipped_total",
			Help: "Entries skipped during sync, by reason",
		},
		[]string{"source", "reason"},
	)

	ScopeViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogue_scope_violations_total",
			Help: "SharePoint items rejected by the scope guard",
		},
	)

	ActiveContainers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogue_active_containers",
			Help: "Active containers after the last sync",
		},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogue_sync_last_success_timestamp",
			Help: "Unix time of the last successful sync",
		},
		[]string{"source"},
	)
)

// RecordAPIRequest records one handled request.
func RecordAPIRequest(method, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, status).Inc()
	APIRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SyncResult is the subset of a sync outcome exported as metrics.
type SyncResult struct {
	Inserted        int
	Updated         int
	Archived        int
	ActiveAfter     int
	ScopeViolations int
	Skipped         map[string]int
}

// RecordSync records a finished sync run. On error only the outcome and
// duration are recorded.
func RecordSync(source string, duration time.Duration, res SyncResult, err error) {
	SyncDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		SyncRunsTotal.WithLabelValues(source, "error").Inc()
		return
	}

	SyncRunsTotal.WithLabelValues(source, "success").Inc()
	SyncRowsTotal.WithLabelValues(source, "inserted").Add(float64(res.Inserted))
	SyncRowsTotal.WithLabelValues(source, "updated").Add(float64(res.Updated))
	SyncRowsTotal.WithLabelValues(source, "archived").Add(float64(res.Archived))
	for reason, n := range res.Skipped {
		SyncSkippedTotal.WithLabelValues(source, reason).Add(float64(n))
	}
	ScopeViolationsTotal.Add(float64(res.ScopeViolations))
	ActiveContainers.Set(float64(res.ActiveAfter))
	SyncLastSuccess.WithLabelValues(source).Set(float64(time.Now().Unix()))
}
