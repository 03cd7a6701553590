package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptd",
			Subsystem: "core",
			Name:      "model_loads_total",
			Help:      "Model load attempts that ran the full load sequence, by result",
		},
		[]string{"backend", "result"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptd",
			Subsystem: "core",
			Name:      "generations_total",
			Help:      "Generation calls, by result (ok, error, not_loaded)",
		},
		[]string{"result"},
	)

	generationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptd",
			Subsystem: "core",
			Name:      "generation_seconds",
			Help:      "Latency of successful generations in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	cachedHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "promptd",
			Subsystem: "core",
			Name:      "cached_handles",
			Help:      "Handles currently held by the model cache",
		},
	)
)

func init() {
	prometheus.MustRegister(modelLoadsTotal, generationsTotal, generationSeconds, cachedHandles)
}
