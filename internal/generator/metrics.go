package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursepilot",
			Name:      "model_calls_total",
			Help:      "Total model API calls",
		},
		[]string{"status"},
	)

	modelCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursepilot",
			Name:      "model_call_duration_seconds",
			Help:      "Duration of model API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
	)

	toolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursepilot",
			Name:      "tool_executions_total",
			Help:      "Total tool executions dispatched by the generator",
		},
		[]string{"tool", "status"},
	)

	toolRoundsPerQuery = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coursepilot",
			Name:      "tool_rounds_per_query",
			Help:      "Number of tool rounds used per generated answer",
			Buckets:   []float64{0, 1, 2},
		},
	)
)
