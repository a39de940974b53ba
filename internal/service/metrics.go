package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeSingle = "single"
	modePair   = "pair"

	statusSuccess = "success"
	statusError   = "error"
)

var (
	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitbot_completions_total",
			Help: "Total number of chat replies by mode and outcome.",
		},
		[]string{"mode", "status"},
	)
	pairDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circuitbot_variant_pair_duration_seconds",
			Help:    "Wall-clock time until both variants are completed.",
			Buckets: prometheus.DefBuckets,
		},
	)
	choicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitbot_variant_choices_total",
			Help: "Total number of recorded A/B choices.",
		},
		[]string{"choice", "style"},
	)
	speechTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitbot_speech_total",
			Help: "Total number of speech syntheses by outcome.",
		},
		[]string{"status"},
	)
)
