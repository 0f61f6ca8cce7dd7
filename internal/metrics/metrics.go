package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation metrics
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_operations_total",
			Help: "Total number of library operations",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edbx_operation_duration_seconds",
			Help:    "Library operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Store metrics
var (
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_transactions_total",
			Help: "Total number of write transactions",
		},
		[]string{"status"}, // "committed", "rolled_back"
	)

	ChainWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_chain_writes_total",
			Help: "Total number of chain statements issued",
		},
		[]string{"table", "step"}, // step: "detach", "delete", "insert", "link"
	)

	LibrarySwitchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edbx_library_switches_total",
			Help: "Total number of times the active library file was opened",
		},
	)

	LibraryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_library_events_total",
			Help: "Database file changes seen in the library directory",
		},
		[]string{"op"},
	)
)

// Resolver metrics
var (
	ResolverFilesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edbx_resolver_files_scanned_total",
			Help: "Total number of files examined while searching for moved tracks",
		},
	)

	ResolverCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_resolver_candidates_total",
			Help: "Candidates found by match rank",
		},
		[]string{"rank"}, // "exact", "similar-name", "similar-size"
	)

	ResolverScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edbx_resolver_scan_duration_seconds",
			Help:    "Duration of a full matching scan",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	PathChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_path_checks_total",
			Help: "Recorded track paths checked on disk",
		},
		[]string{"result"}, // "found", "missing"
	)
)

// Waveform metrics
var (
	WaveformDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_waveform_decodes_total",
			Help: "Waveform previews requested by result",
		},
		[]string{"result"}, // "ok", "absent", "corrupt"
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edbx_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edbx_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveOperation records the outcome and duration of a library operation started at start.
func ObserveOperation(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveTransaction counts a committed or rolled back write transaction.
func ObserveTransaction(err error) {
	if err != nil {
		TransactionsTotal.WithLabelValues("rolled_back").Inc()
		return
	}
	TransactionsTotal.WithLabelValues("committed").Inc()
}

// ObserveChainWrites counts the statements of a chain plan by step.
func ObserveChainWrites(table string, detach, del, insert, link int) {
	ChainWritesTotal.WithLabelValues(table, "detach").Add(float64(detach))
	ChainWritesTotal.WithLabelValues(table, "delete").Add(float64(del))
	ChainWritesTotal.WithLabelValues(table, "insert").Add(float64(insert))
	ChainWritesTotal.WithLabelValues(table, "link").Add(float64(link))
}
