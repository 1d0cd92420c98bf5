package forecast

import (
	"github.com/demandcast/backend-go/internal/domain"
)

const (
	// widthEpsilon guards against division by a zero median.
	widthEpsilon = 1e-9

	// volatileWidthThreshold marks a series volatile when the mean relative
	// interval width exceeds it, regardless of direction.
	volatileWidthThreshold = 1.0

	// trendChangeThreshold is the relative change between the first-half and
	// second-half median means beyond which a trend is called.
	trendChangeThreshold = 0.10
)

// Score derives a bounded confidence score and a trend classification from a
// quantile forecast sequence. Narrower relative p10..p90 intervals map to
// higher confidence; the mapping is clamp(1 - width/2, 0, 1), monotonically
// decreasing in width. The demand profile is deliberately not an input here:
// the quantile spread already carries the model's uncertainty, so historical
// statistics only drive scoring on the fallback path
// (recommend.Engine.FallbackScore). Deterministic and side-effect free.
func Score(forecasts []domain.QuantileForecast) (float64, domain.TrendClass) {
	if len(forecasts) == 0 {
		return 0, domain.TrendVolatile
	}

	var widthSum float64
	for _, f := range forecasts {
		denom := f.P50
		if denom < widthEpsilon {
			denom = widthEpsilon
		}
		widthSum += (f.P90 - f.P10) / denom
	}
	meanWidth := widthSum / float64(len(forecasts))

	confidence := clamp01(1 - meanWidth/2)
	return confidence, classifyTrend(forecasts, meanWidth)
}

func classifyTrend(forecasts []domain.QuantileForecast, meanWidth float64) domain.TrendClass {
	if meanWidth > volatileWidthThreshold {
		return domain.TrendVolatile
	}
	if len(forecasts) < 2 {
		return domain.TrendStable
	}

	half := len(forecasts) / 2
	firstMean := meanP50(forecasts[:half])
	secondMean := meanP50(forecasts[half:])

	if firstMean < widthEpsilon {
		if secondMean > widthEpsilon {
			return domain.TrendIncreasing
		}
		return domain.TrendStable
	}

	change := (secondMean - firstMean) / firstMean
	switch {
	case change > trendChangeThreshold:
		return domain.TrendIncreasing
	case change < -trendChangeThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func meanP50(forecasts []domain.QuantileForecast) float64 {
	if len(forecasts) == 0 {
		return 0
	}
	var sum float64
	for _, f := range forecasts {
		sum += f.P50
	}
	return sum / float64(len(forecasts))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
