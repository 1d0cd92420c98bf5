package insight

import (
	"fmt"

	"github.com/demandcast/backend-go/internal/domain"
)

// TemplatedRationale synthesizes a per-product rationale from demand
// statistics when no narrative model output is available. Always non-empty.
func TemplatedRationale(stat ProductStat) string {
	trendText := "demand has been stable"
	switch stat.Trend {
	case domain.TrendIncreasing:
		trendText = "demand is trending upward"
	case domain.TrendDecreasing:
		trendText = "demand is trending downward"
	case domain.TrendVolatile:
		trendText = "demand has been volatile"
	}

	return fmt.Sprintf(
		"Average demand of %.1f units per order; %s with %.0f%% confidence based on historical ordering patterns.",
		stat.AvgDemand, trendText, stat.Confidence*100)
}

// TemplatedNarrative builds the aggregate insight sections from the same
// statistics the model would have seen.
func TemplatedNarrative(stats []ProductStat) domain.InsightNarrative {
	var increasing, decreasing, volatile, highConfidence int
	for _, s := range stats {
		switch s.Trend {
		case domain.TrendIncreasing:
			increasing++
		case domain.TrendDecreasing:
			decreasing++
		case domain.TrendVolatile:
			volatile++
		}
		if s.Confidence >= 0.8 {
			highConfidence++
		}
	}

	return domain.InsightNarrative{
		SeasonalTrends: fmt.Sprintf(
			"Of %d analyzed products, %d show increasing demand and %d show decreasing demand.",
			len(stats), increasing, decreasing),
		RiskAssessment: fmt.Sprintf(
			"%d products show volatile ordering patterns; %d carry high-confidence forecasts suitable for automated reordering.",
			volatile, highConfidence),
		CostOptimization: "Consolidate products with matching suggested order dates into combined orders to reduce delivery overhead.",
	}
}
