package generation

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmstudio_generation_requests_total",
			Help: "Total number of generation requests.",
		},
		[]string{"kind", "status"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmstudio_generation_duration_seconds",
			Help:    "Duration of generation requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func observe(kind string, err error, elapsed time.Duration) {
	status := "success"
	var schemaErr *SchemaValidationError
	switch {
	case err == nil:
	case errors.As(err, &schemaErr):
		status = "invalid_output"
	default:
		status = "error"
	}
	generationRequestsTotal.With(prometheus.Labels{"kind": kind, "status": status}).Inc()
	generationDuration.With(prometheus.Labels{"kind": kind}).Observe(elapsed.Seconds())
}
