package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollectorSummary(t *testing.T) {
	m := NewMetricsCollector("test")
	for _, v := range []float64{1, 2, 3, 4} {
		m.Observe("stage_duration_ms", v)
	}

	s, ok := m.Summary("stage_duration_ms")
	require.True(t, ok)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 10.0, s.Sum)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
}

func TestMetricsCollectorSummaryMissingSeries(t *testing.T) {
	m := NewMetricsCollector("test")
	_, ok := m.Summary("never_observed")
	assert.False(t, ok)
}

func TestMetricsCollectorSummariesOmitsEmptySeries(t *testing.T) {
	m := NewMetricsCollector("test")
	m.Observe("a", 1)
	summaries := m.Summaries()
	assert.Len(t, summaries, 1)
	_, hasB := summaries["b"]
	assert.False(t, hasB)
}

func TestMetricsCollectorRegistersPrometheusSummary(t *testing.T) {
	m := NewMetricsCollector("orchestrator")
	m.Observe("tokens", 42)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
