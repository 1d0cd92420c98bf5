package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandcast/backend-go/internal/domain"
)

var forecastStart = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

func TestParsePrediction(t *testing.T) {
	raw := RawPrediction{
		Mean: []float64{10, 11},
		Quantiles: map[string][]float64{
			"0.1": {5, 6},
			"0.5": {10, 11},
			"0.9": {15, 16},
		},
	}

	records, err := ParsePrediction("cust1_fac1_prod1", raw, forecastStart, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, forecastStart, records[0].Date)
	assert.Equal(t, forecastStart.AddDate(0, 0, 1), records[1].Date)
	assert.Equal(t, 5.0, records[0].P10)
	assert.Equal(t, 10.0, records[0].P50)
	assert.Equal(t, 15.0, records[0].P90)
	assert.Equal(t, 10.0, records[0].Mean)
}

func TestParsePredictionResortsViolatedOrdering(t *testing.T) {
	raw := RawPrediction{
		Quantiles: map[string][]float64{
			"0.1": {15},
			"0.5": {5},
			"0.9": {10},
		},
	}

	records, err := ParsePrediction("item", raw, forecastStart, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 5.0, records[0].P10)
	assert.Equal(t, 10.0, records[0].P50)
	assert.Equal(t, 15.0, records[0].P90)
	assert.LessOrEqual(t, records[0].P10, records[0].P50)
	assert.LessOrEqual(t, records[0].P50, records[0].P90)
}

func TestParsePredictionMissingQuantileKey(t *testing.T) {
	raw := RawPrediction{
		Quantiles: map[string][]float64{
			"0.1": {1},
			"0.5": {2},
		},
	}

	_, err := ParsePrediction("item", raw, forecastStart, 1)
	require.Error(t, err)

	var parseErr *domain.ForecastParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Reason, "0.9")
}

func TestParsePredictionLengthMismatch(t *testing.T) {
	raw := RawPrediction{
		Quantiles: map[string][]float64{
			"0.1": {1, 2},
			"0.5": {2, 3},
			"0.9": {3, 4},
		},
	}

	_, err := ParsePrediction("item", raw, forecastStart, 3)
	var parseErr *domain.ForecastParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParsePredictionDefaultsMeanToMedian(t *testing.T) {
	raw := RawPrediction{
		Quantiles: map[string][]float64{
			"0.1": {1},
			"0.5": {2},
			"0.9": {3},
		},
	}

	records, err := ParsePrediction("item", raw, forecastStart, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, records[0].Mean)
}
