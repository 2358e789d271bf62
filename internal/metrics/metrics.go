package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerwise_stage_outcomes_total",
			Help: "Pipeline stage outcomes by stage and result code",
		},
		[]string{"stage", "result"},
	)

	ExtractionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerwise_extraction_fallbacks_total",
			Help: "PDF extractions that fell through to the secondary engine",
		},
		[]string{"outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "careerwise_llm_request_duration_seconds",
			Help:    "Duration of recommendation requests to the model in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"result"},
	)

	AnalysesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "careerwise_analyses_active",
			Help: "Number of resume analyses currently in flight",
		},
	)

	QueueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerwise_queue_messages_total",
			Help: "Upload messages consumed from the queue by final status",
		},
		[]string{"status"},
	)
)

// ObserveStage records one stage result; result is "ok" or an error code.
func ObserveStage(stage, result string) {
	StageOutcomes.WithLabelValues(stage, result).Inc()
}
