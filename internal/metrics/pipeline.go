package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forsa",
			Name:      "pipeline_queries_total",
			Help:      "Total queries answered, by terminal layer",
		},
		[]string{"layer"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forsa",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Per-stage pipeline latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	PipelineDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forsa",
			Name:      "pipeline_degraded_total",
			Help:      "Queries answered in degraded mode, by missing component",
		},
		[]string{"component"},
	)

	PipelineIntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forsa",
			Name:      "pipeline_intent_total",
			Help:      "Detected query intents",
		},
		[]string{"intent"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineQueriesTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineDegradedTotal)
	prometheus.MustRegister(PipelineIntentTotal)
	pipelineMetricsRegistered = true
}
