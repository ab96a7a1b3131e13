package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursepilot",
			Name:      "queries_total",
			Help:      "Total RAG queries by outcome",
		},
		[]string{"status"},
	)

	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursepilot",
			Name:      "query_duration_seconds",
			Help:      "End to end query handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
