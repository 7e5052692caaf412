package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Presence Metrics
	HeartbeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_heartbeats_total",
			Help: "Total number of session heartbeats received",
		},
	)

	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_live_sessions",
			Help: "Live sessions as of the last aggregation pass",
		},
	)

	// Access Mode Metrics
	SingleUserMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "access_single_user_mode",
			Help: "1 while single-user mode is active, 0 otherwise",
		},
	)

	PurgedSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_purged_sessions_total",
			Help: "Sessions removed by purge passes",
		},
	)

	PurgeBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_purge_batches_total",
			Help: "Purge write batches by outcome",
		},
		[]string{"status"}, // committed, failed
	)

	// Audit Metrics
	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit events dropped because the queue was full",
		},
	)

	// Cache Metrics
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"}, // hit/miss
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type and reason",
		},
		[]string{"type", "reason"}, // db, cache, auth, ...
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackCacheOperation records a cache hit or miss
func TrackCacheOperation(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheOperations.WithLabelValues(cache, result).Inc()
}

// TrackError increments the error counter by type and reason
func TrackError(errorType, reason string) {
	ErrorsTotal.WithLabelValues(errorType, reason).Inc()
}

// UpdateLiveSessions sets the live-session gauge after an aggregation pass
func UpdateLiveSessions(count float64) {
	LiveSessions.Set(count)
}

// SetSingleUserModeGauge mirrors the current access mode onto the gauge
func SetSingleUserModeGauge(active bool) {
	if active {
		SingleUserMode.Set(1)
		return
	}
	SingleUserMode.Set(0)
}
