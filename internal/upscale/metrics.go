package upscale

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upscaled",
			Subsystem: "upscale",
			Name:      "requests_total",
			Help:      "Upscale requests by mode and result",
		},
		[]string{"mode", "result"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "upscaled",
			Subsystem: "upscale",
			Name:      "request_duration_seconds",
			Help:      "End-to-end upscale duration including inference",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

func modeLabel(m Mode) string {
	switch m {
	case ModeFactor, ModeResolution:
		return string(m)
	}
	return "unknown"
}
