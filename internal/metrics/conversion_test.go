package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewConversionMetrics(reg)
	require.NoError(t, err)

	m.Conversion(SourceAI)
	m.Conversion(SourceFallback)
	m.Conversion(SourceFallback)
	m.ModelAttempt("gemini-pro", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.conversions.WithLabelValues(SourceAI)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.conversions.WithLabelValues(SourceFallback)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.modelAttempts.WithLabelValues("gemini-pro", "ok")))
}

func TestConversionMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewConversionMetrics(reg)
	require.NoError(t, err)

	_, err = NewConversionMetrics(reg)
	assert.Error(t, err)
}
