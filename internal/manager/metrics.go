package manager

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	engineLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upscaled",
			Subsystem: "engine",
			Name:      "loads_total",
			Help:      "Engine constructions by nominal scale and result",
		},
		[]string{"scale", "result"},
	)

	inferencePassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upscaled",
			Subsystem: "engine",
			Name:      "passes_total",
			Help:      "Inference passes by nominal scale and result",
		},
		[]string{"scale", "result"},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "upscaled",
			Subsystem: "engine",
			Name:      "pass_duration_seconds",
			Help:      "Duration of one inference pass in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"scale"},
	)
)

func init() {
	prometheus.MustRegister(engineLoadsTotal, inferencePassesTotal, inferenceDuration)
}

func scaleLabel(scale int) string { return "x" + strconv.Itoa(scale) }
