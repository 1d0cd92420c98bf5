package forecast

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
)

// RawPrediction is one instance's slice of the forecaster response, keyed by
// output type.
type RawPrediction struct {
	Mean      []float64            `json:"mean,omitempty"`
	Quantiles map[string][]float64 `json:"quantiles"`
}

var requiredQuantiles = []string{"0.1", "0.5", "0.9"}

// ParsePrediction converts one raw prediction into ordered per-date quantile
// records starting the day after the context window ends. Quantile triples
// that violate p10 <= p50 <= p90 are re-sorted with a warning rather than
// failing the pipeline. Missing quantile keys or a length mismatch against the
// prediction horizon are parse errors; the caller falls back.
func ParsePrediction(itemID string, raw RawPrediction, firstForecastDate time.Time, predictionLength int) ([]domain.QuantileForecast, error) {
	for _, q := range requiredQuantiles {
		series, ok := raw.Quantiles[q]
		if !ok {
			return nil, &domain.ForecastParseError{Reason: "missing quantile key " + q}
		}
		if len(series) != predictionLength {
			return nil, &domain.ForecastParseError{
				Reason: "quantile " + q + " length mismatch against prediction horizon",
			}
		}
	}
	if raw.Mean != nil && len(raw.Mean) != predictionLength {
		return nil, &domain.ForecastParseError{Reason: "mean length mismatch against prediction horizon"}
	}

	p10s := raw.Quantiles["0.1"]
	p50s := raw.Quantiles["0.5"]
	p90s := raw.Quantiles["0.9"]

	records := make([]domain.QuantileForecast, predictionLength)
	for i := 0; i < predictionLength; i++ {
		triple := []float64{p10s[i], p50s[i], p90s[i]}
		if !sort.Float64sAreSorted(triple) {
			log.Warn().
				Str("item_id", itemID).
				Int("offset", i).
				Msg("quantile ordering violated, re-sorting")
			sort.Float64s(triple)
		}

		mean := triple[1]
		if raw.Mean != nil {
			mean = raw.Mean[i]
		}

		records[i] = domain.QuantileForecast{
			Date: firstForecastDate.AddDate(0, 0, i),
			P10:  triple[0],
			P50:  triple[1],
			P90:  triple[2],
			Mean: mean,
		}
	}
	return records, nil
}
