package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the xG ingestion pipeline

var (
	// FBRef request metrics
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_fbref_requests_total",
			Help: "Total number of FBRef page requests",
		},
		[]string{"league", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "efl_fbref_request_duration_seconds",
			Help:    "Duration of FBRef page requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"league"},
	)

	FetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efl_fbref_retries_total",
			Help: "Total number of retried FBRef requests",
		},
	)

	// Orchestrator metrics
	PairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_scrape_pairs_total",
			Help: "Total number of league/season pairs scraped",
		},
		[]string{"status"},
	)

	RateLimitSleepSeconds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efl_rate_limit_sleep_seconds_total",
			Help: "Total seconds slept between scrape requests",
		},
	)

	// Cleaning metrics
	RowsCleanedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_rows_cleaned_total",
			Help: "Total number of fixture rows turned into matches",
		},
		[]string{"league"},
	)

	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_rows_skipped_total",
			Help: "Total number of fixture rows dropped during cleaning",
		},
		[]string{"reason"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efl_cache_hits_total",
			Help: "Total number of fixture cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efl_cache_misses_total",
			Help: "Total number of fixture cache misses",
		},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	MatchesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efl_matches_stored",
			Help: "Number of matches in the database",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efl_sync_operations_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "efl_sync_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"type"},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efl_last_successful_sync_timestamp",
			Help: "Timestamp of last successful pipeline run",
		},
	)

	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efl_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordFetch records an FBRef request
func RecordFetch(league, status string, duration float64) {
	FetchRequestsTotal.WithLabelValues(league, status).Inc()
	FetchDuration.WithLabelValues(league).Observe(duration)
}

// RecordRetry records a retried request
func RecordRetry() {
	FetchRetriesTotal.Inc()
}

// RecordPair records the outcome of one league/season pair
func RecordPair(status string) {
	PairsTotal.WithLabelValues(status).Inc()
}

// RecordSleep records rate-limit sleep time
func RecordSleep(seconds float64) {
	RateLimitSleepSeconds.Add(seconds)
}

// RecordRowsCleaned records matches produced by the cleaner
func RecordRowsCleaned(league string, n int) {
	RowsCleanedTotal.WithLabelValues(league).Add(float64(n))
}

// RecordRowSkipped records a dropped fixture row
func RecordRowSkipped(reason string) {
	RowsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(operation, status string) {
	DBQueriesTotal.WithLabelValues(operation, status).Inc()
}

// UpdateMatchesStored sets the stored match count
func UpdateMatchesStored(n int) {
	MatchesStored.Set(float64(n))
}

// RecordSync records a pipeline run
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}
