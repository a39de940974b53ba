package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitbot_ai_requests_total",
			Help: "Total number of requests to the AI provider.",
		},
		[]string{"operation", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitbot_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitbot_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts (provider usage or local estimate).",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model", "source"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitbot_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

const (
	opCompletion = "completion"
	opSpeech     = "speech"
	opListModels = "list_models"

	statusSuccess = "success"
	statusError   = "error"
	statusEmpty   = "error_empty_response"
)
