package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

const tracerName = "tdacrash"

var tracer = otel.Tracer(tracerName)

var (
	derivativeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdacrash_derivative_runs_total",
		Help: "Derivative and distance computations by kind and outcome",
	}, []string{"operation", "kind", "outcome"})

	derivativeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tdacrash_derivative_duration_seconds",
		Help:    "Engine wall time per computation",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"operation", "kind"})

	diagramCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdacrash_diagram_cache_lookups_total",
		Help: "Diagram cache lookups by result",
	}, []string{"result"})

	oracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tdacrash_oracle_duration_seconds",
		Help:    "Time spent computing one persistence diagram",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	pipelineAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tdacrash_pipeline_alerts_total",
		Help: "Alerts raised by the crash report, by source",
	}, []string{"source"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
