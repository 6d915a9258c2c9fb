package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nominal_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nominal_files_analyzed_total",
		Help: "Total number of syntax trees analyzed.",
	})

	NodesVisitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nominal_nodes_visited_total",
		Help: "Total number of syntax nodes visited by the analyzer.",
	})

	ClassNameChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nominal_class_name_checks_total",
		Help: "Class-name validations performed, by node kind and outcome.",
	}, []string{"kind", "outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nominal_diagnostics_total",
		Help: "Total number of diagnostics emitted, by category.",
	}, []string{"category"})

	CodeBaseElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nominal_codebase_elements",
		Help: "Number of declarations loaded into the code base, by element kind.",
	}, []string{"element"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nominal_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nominal_watch_runs_throttled_total",
		Help: "Total number of watch-triggered runs delayed by the rate limiter.",
	})
)
