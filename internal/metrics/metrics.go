package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// GraphBuildsTotal counts BuildGraphs calls by result (success, error, canceled)
	GraphBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depvis_graph_builds_total",
			Help: "Total number of graph builds by result",
		},
		[]string{"result"},
	)

	// GraphBuildSeconds tracks how long a full build takes, decoration included
	GraphBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depvis_graph_build_seconds",
			Help:    "Time taken to build all framework graphs for a manifest",
			Buckets: prometheus.DefBuckets,
		},
	)

	// GraphNodes tracks the node count of each framework graph built
	GraphNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "depvis_graph_nodes",
			Help:    "Number of nodes per framework graph",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// MetadataLookupsTotal counts remote metadata lookups per decorator
	MetadataLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depvis_metadata_lookups_total",
			Help: "Total number of package metadata lookups by decorator and result",
		},
		[]string{"decorator", "result"},
	)

	// DecoratorCacheHitsTotal counts nodes answered from a decorator's cache
	DecoratorCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depvis_decorator_cache_hits_total",
			Help: "Total number of decorator cache hits",
		},
		[]string{"decorator"},
	)
)

// Build results
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultCanceled = "canceled"
	ResultNotFound = "not_found"
)

func init() {
	prometheus.MustRegister(
		GraphBuildsTotal,
		GraphBuildSeconds,
		GraphNodes,
		MetadataLookupsTotal,
		DecoratorCacheHitsTotal,
	)
}
