package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Conversion sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// ConversionMetrics counts conversions and model attempts.
type ConversionMetrics struct {
	conversions   *prometheus.CounterVec
	modelAttempts *prometheus.CounterVec
}

// NewConversionMetrics creates and registers the conversion collectors on reg.
func NewConversionMetrics(reg prometheus.Registerer) (*ConversionMetrics, error) {
	m := &ConversionMetrics{
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyforge_conversions_total",
				Help: "Total number of deck conversions by story source.",
			},
			[]string{"source"},
		),
		modelAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyforge_model_attempts_total",
				Help: "Total number of model candidate attempts by outcome.",
			},
			[]string{"model", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.conversions, m.modelAttempts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Conversion records one finished conversion.
func (m *ConversionMetrics) Conversion(source string) {
	m.conversions.WithLabelValues(source).Inc()
}

// ModelAttempt records one model candidate attempt.
func (m *ConversionMetrics) ModelAttempt(model, outcome string) {
	m.modelAttempts.WithLabelValues(model, outcome).Inc()
}
