package session

import "github.com/prometheus/client_golang/prometheus"

// Generation results used as label values.
const (
	resultEOG       = "eog"
	resultCancelled = "cancelled"
	resultLength    = "length"
	resultError     = "error"
	resultBeginErr  = "begin_error"
)

var (
	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "model_loads_total",
			Help:      "Model load attempts by result",
		},
		[]string{"result"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "generations_total",
			Help:      "Finished generation sessions by result",
		},
		[]string{"result"},
	)

	promptTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "prompt_tokens_total",
			Help:      "Text prompt tokens decoded",
		},
	)

	tokensGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "tokens_generated_total",
			Help:      "Tokens produced by generation steps",
		},
	)

	stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llamabridge",
			Subsystem: "session",
			Name:      "step_duration_seconds",
			Help:      "Duration of one sample+decode step",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
)

func init() {
	prometheus.MustRegister(modelLoadsTotal, generationsTotal, promptTokensTotal, tokensGeneratedTotal, stepDuration)
}
