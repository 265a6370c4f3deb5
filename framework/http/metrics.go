package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/km-arc/go-iform/framework/form"
)

// Outcome labels for Metrics.Validations.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for form processing. A nil
// *Metrics records nothing.
type Metrics struct {
	Validations   *prometheus.CounterVec
	FieldErrors   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	SchemaReloads prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "iform",
				Name:      "validations_total",
				Help:      "Total number of processed form submissions",
			},
			[]string{"form", "outcome"},
		),
		FieldErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "iform",
				Name:      "field_errors_total",
				Help:      "Total number of field validation errors",
			},
			[]string{"form", "field"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "iform",
				Name:      "validation_duration_seconds",
				Help:      "Time spent parsing and processing a submission",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"form"},
		),
		SchemaReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "iform",
				Name:      "schema_reloads_total",
				Help:      "Total number of successful schema file reloads",
			},
		),
	}
}

// Observe records one Process call.
func (m *Metrics) Observe(name string, res *form.Result, err error, d time.Duration) {
	if m == nil {
		return
	}

	m.Duration.WithLabelValues(name).Observe(d.Seconds())

	switch {
	case err != nil:
		m.Validations.WithLabelValues(name, OutcomeError).Inc()
	case res.Valid():
		m.Validations.WithLabelValues(name, OutcomeValid).Inc()
	default:
		m.Validations.WithLabelValues(name, OutcomeInvalid).Inc()
		for _, field := range res.ErrorFields() {
			m.FieldErrors.WithLabelValues(name, field).Inc()
		}
	}
}

// Reloaded counts a schema reload.
func (m *Metrics) Reloaded() {
	if m == nil {
		return
	}
	m.SchemaReloads.Inc()
}
