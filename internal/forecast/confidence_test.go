package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/demandcast/backend-go/internal/domain"
)

func quantileSeries(p50s []float64, relWidth float64) []domain.QuantileForecast {
	start := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	out := make([]domain.QuantileForecast, len(p50s))
	for i, p50 := range p50s {
		half := p50 * relWidth / 2
		out[i] = domain.QuantileForecast{
			Date: start.AddDate(0, 0, i),
			P10:  p50 - half,
			P50:  p50,
			P90:  p50 + half,
			Mean: p50,
		}
	}
	return out
}

func TestScoreBounds(t *testing.T) {
	tests := []struct {
		name     string
		relWidth float64
	}{
		{"tight interval", 0.1},
		{"wide interval", 1.5},
		{"extreme interval", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, _ := Score(quantileSeries([]float64{10, 10, 10, 10}, tt.relWidth))
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestScoreDecreasesWithWidth(t *testing.T) {
	narrow, _ := Score(quantileSeries([]float64{10, 10, 10, 10}, 0.2))
	medium, _ := Score(quantileSeries([]float64{10, 10, 10, 10}, 0.6))
	wide, _ := Score(quantileSeries([]float64{10, 10, 10, 10}, 1.2))

	assert.Greater(t, narrow, medium)
	assert.Greater(t, medium, wide)
}

func TestScoreTrendClassification(t *testing.T) {
	tests := []struct {
		name string
		p50s []float64
		want domain.TrendClass
	}{
		{"increasing", []float64{10, 10, 15, 15}, domain.TrendIncreasing},
		{"decreasing", []float64{15, 15, 10, 10}, domain.TrendDecreasing},
		{"stable", []float64{10, 10, 10.5, 10.5}, domain.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, trend := Score(quantileSeries(tt.p50s, 0.3))
			assert.Equal(t, tt.want, trend)
		})
	}
}

func TestScoreVolatileOverridesDirection(t *testing.T) {
	// Clearly increasing, but the interval width dominates.
	_, trend := Score(quantileSeries([]float64{10, 10, 20, 20}, 1.5))
	assert.Equal(t, domain.TrendVolatile, trend)
}

func TestScoreZeroMedianDoesNotPanic(t *testing.T) {
	series := []domain.QuantileForecast{{P10: 0, P50: 0, P90: 0}}
	conf, trend := Score(series)
	assert.GreaterOrEqual(t, conf, 0.0)
	assert.LessOrEqual(t, conf, 1.0)
	assert.NotEmpty(t, trend)
}

func TestScoreEmptySeries(t *testing.T) {
	conf, trend := Score(nil)
	assert.Equal(t, 0.0, conf)
	assert.Equal(t, domain.TrendVolatile, trend)
}
