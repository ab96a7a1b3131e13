package knowledge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coursepilot",
			Name:      "search_queries_total",
			Help:      "Total content search queries",
		},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursepilot",
			Name:      "search_duration_seconds",
			Help:      "Duration of content search operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	searchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursepilot",
			Name:      "search_results_count",
			Help:      "Number of results returned per content search",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)
)
