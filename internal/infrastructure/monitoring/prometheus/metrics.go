package prometheus

import (
	"database/sql"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// AnalyticsMetrics holds every metric the CLI records.
type AnalyticsMetrics struct {
	// Analytics layer
	OperationsTotal      CounterVec
	OperationDuration    HistogramVec
	SnapshotLoadDuration HistogramVec
	SnapshotRows         GaugeVec
	ClustersFormed       GaugeVec
	ResultRows           GaugeVec

	// Result cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Record writes
	RecordsWrittenTotal CounterVec

	// Advisory
	AdvisoryRequestsTotal CounterVec
	AdvisoryRetriesTotal  CounterVec
	AdvisoryDuration      HistogramVec

	// Store
	DBOpenConnections GaugeVec
	DBInUse           GaugeVec
}

var (
	DefaultOperationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultAdvisoryBuckets  = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
)

// NewAnalyticsMetrics registers all metrics on collector.
func NewAnalyticsMetrics(collector MetricsCollector) *AnalyticsMetrics {
	m := &AnalyticsMetrics{}

	m.OperationsTotal = collector.RegisterCounter("operations_total", "Analytics operations by outcome", "operation", "status")
	m.OperationDuration = collector.RegisterHistogram("operation_duration_seconds", "Analytics operation duration", DefaultOperationBuckets, "operation")
	m.SnapshotLoadDuration = collector.RegisterHistogram("snapshot_load_duration_seconds", "Time to load the row snapshot", DefaultOperationBuckets)
	m.SnapshotRows = collector.RegisterGauge("snapshot_rows", "Rows in the last loaded snapshot", "table")
	m.ClustersFormed = collector.RegisterGauge("clusters_formed", "Number of clusters produced by the last clustering run", "variant")
	m.ResultRows = collector.RegisterGauge("result_rows", "Rows returned by the last run of an operation", "operation")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Result cache hits", "operation")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Result cache misses", "operation")

	m.RecordsWrittenTotal = collector.RegisterCounter("records_written_total", "Records written to the store", "kind")

	m.AdvisoryRequestsTotal = collector.RegisterCounter("advisory_requests_total", "Advisory generations by outcome", "status")
	m.AdvisoryRetriesTotal = collector.RegisterCounter("advisory_retries_total", "Advisory attempts retried after rate limiting")
	m.AdvisoryDuration = collector.RegisterHistogram("advisory_duration_seconds", "Advisory generation duration", DefaultAdvisoryBuckets)

	m.DBOpenConnections = collector.RegisterGauge("db_open_connections", "Open SQLite connections")
	m.DBInUse = collector.RegisterGauge("db_in_use_connections", "SQLite connections in use")

	return m
}

// NewNopMetrics returns metrics that record nothing.
func NewNopMetrics() *AnalyticsMetrics {
	return &AnalyticsMetrics{
		OperationsTotal:       noopCounterVec{},
		OperationDuration:     noopHistogramVec{},
		SnapshotLoadDuration:  noopHistogramVec{},
		SnapshotRows:          noopGaugeVec{},
		ClustersFormed:        noopGaugeVec{},
		ResultRows:            noopGaugeVec{},
		CacheHitsTotal:        noopCounterVec{},
		CacheMissesTotal:      noopCounterVec{},
		RecordsWrittenTotal:   noopCounterVec{},
		AdvisoryRequestsTotal: noopCounterVec{},
		AdvisoryRetriesTotal:  noopCounterVec{},
		AdvisoryDuration:      noopHistogramVec{},
		DBOpenConnections:     noopGaugeVec{},
		DBInUse:               noopGaugeVec{},
	}
}

// ObserveOperation counts one finished operation.
func (m *AnalyticsMetrics) ObserveOperation(operation string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// ObservePool records database pool statistics.
func (m *AnalyticsMetrics) ObservePool(stats sql.DBStats) {
	m.DBOpenConnections.WithLabelValues().Set(float64(stats.OpenConnections))
	m.DBInUse.WithLabelValues().Set(float64(stats.InUse))
}
