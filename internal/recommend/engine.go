package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/insight"
)

const (
	// HighConfidenceThreshold marks products whose score qualifies them for
	// automated reordering.
	HighConfidenceThreshold = 0.8

	// reorderBuffer pads fallback quantities above the historical average.
	reorderBuffer = 1.1
)

// ScoredProduct is one product after scoring, ready for ranking and assembly.
// Forecasts is nil on the history-only fallback path.
type ScoredProduct struct {
	Profile    domain.ProductDemandProfile
	Catalog    domain.CustomerProduct
	Confidence float64
	Trend      domain.TrendClass
	Forecasts  []domain.QuantileForecast
}

// Engine turns scored products into the final ranked report. Pure and
// deterministic; all collaborator calls happen upstream in the service.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// FallbackScore synthesizes a confidence score and trend from order history
// alone, used when no forecast is available. Confidence combines quantity
// consistency (inverse coefficient of variation) with an ordering recency
// factor; both are bounded so the product stays rankable.
func (e *Engine) FallbackScore(profile domain.ProductDemandProfile, asOf time.Time) (float64, domain.TrendClass) {
	consistency := 1.0 / (1.0 + profile.CoefficientOfVariation)

	recency := 1.0
	daysSince := asOf.Sub(profile.LastOrderDate).Hours() / 24
	if daysSince > 30 {
		recency = clamp(1.0-(daysSince-30)/180, 0.1, 1.0)
	}

	return clamp(consistency*recency, 0, 1), fallbackTrend(profile)
}

func fallbackTrend(profile domain.ProductDemandProfile) domain.TrendClass {
	if profile.CoefficientOfVariation > 1.0 {
		return domain.TrendVolatile
	}
	if profile.AvgQuantity <= 0 {
		return domain.TrendStable
	}

	relSlope := profile.TrendSlope / profile.AvgQuantity
	switch {
	case relSlope > 0.05:
		return domain.TrendIncreasing
	case relSlope < -0.05:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// RecommendedQuantity sizes the reorder. With a forecast, it sums the median
// prediction over the product's typical reorder interval; without one, it
// pads the historical average.
func (e *Engine) RecommendedQuantity(p ScoredProduct) int {
	if len(p.Forecasts) == 0 {
		return atLeastOne(math.Round(p.Profile.AvgQuantity * reorderBuffer))
	}

	coverDays := int(math.Round(p.Profile.AvgDaysBetweenOrders))
	if coverDays < 1 {
		coverDays = 1
	}
	if coverDays > len(p.Forecasts) {
		coverDays = len(p.Forecasts)
	}

	var sum float64
	for _, f := range p.Forecasts[:coverDays] {
		sum += f.P50
	}
	return atLeastOne(math.Round(sum))
}

// SuggestedOrderDate projects the next order from the last order plus the
// average spacing, never in the past relative to asOf.
func (e *Engine) SuggestedOrderDate(profile domain.ProductDemandProfile, asOf time.Time) time.Time {
	next := dayOf(profile.LastOrderDate).AddDate(0, 0, int(math.Round(profile.AvgDaysBetweenOrders)))
	today := dayOf(asOf)
	if next.Before(today) {
		return today
	}
	return next
}

// Assemble builds the complete report: ranked recommendations, ordering
// schedule, narrative insights, and the aggregate summary. All sections are
// present on every path, fallback included.
func (e *Engine) Assemble(customerID, facilityID string, source domain.ReportSource, scored []ScoredProduct, narrative domain.InsightNarrative, rationales map[string]string, asOf time.Time) domain.RecommendationReport {
	recs := make([]domain.Recommendation, 0, len(scored))
	for _, p := range scored {
		rationale := rationales[p.Profile.ProductID]
		if rationale == "" {
			rationale = insight.TemplatedRationale(insight.ProductStat{
				ProductID:  p.Profile.ProductID,
				AvgDemand:  p.Profile.AvgQuantity,
				Trend:      p.Trend,
				Confidence: p.Confidence,
			})
		}

		recs = append(recs, domain.Recommendation{
			ProductID:           p.Profile.ProductID,
			ProductName:         p.Catalog.ProductName,
			Category:            p.Catalog.Category,
			Vendor:              p.Catalog.Vendor,
			RecommendedQuantity: e.RecommendedQuantity(p),
			ConfidenceScore:     p.Confidence,
			Trend:               p.Trend,
			Rationale:           rationale,
			SuggestedOrderDate:  e.SuggestedOrderDate(p.Profile, asOf),
		})
	}

	rank(recs)

	return domain.RecommendationReport{
		ID:              uuid.NewString(),
		GeneratedAt:     asOf,
		CustomerID:      customerID,
		FacilityID:      facilityID,
		Source:          source,
		Recommendations: recs,
		Schedule:        buildSchedule(recs),
		Insights:        narrative,
		Summary:         buildSummary(len(scored), recs),
	}
}

// rank orders by confidence descending, ties broken by quantity descending,
// then product id for a stable result.
func rank(recs []domain.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ConfidenceScore != recs[j].ConfidenceScore {
			return recs[i].ConfidenceScore > recs[j].ConfidenceScore
		}
		if recs[i].RecommendedQuantity != recs[j].RecommendedQuantity {
			return recs[i].RecommendedQuantity > recs[j].RecommendedQuantity
		}
		return recs[i].ProductID < recs[j].ProductID
	})
}

// buildSchedule consolidates products whose suggested dates fall on the same
// calendar day into one combined ordering action.
func buildSchedule(recs []domain.Recommendation) []domain.ScheduleEntry {
	byDate := make(map[time.Time]*domain.ScheduleEntry)
	for _, r := range recs {
		date := dayOf(r.SuggestedOrderDate)
		entry, ok := byDate[date]
		if !ok {
			entry = &domain.ScheduleEntry{Date: date}
			byDate[date] = entry
		}
		entry.Products = append(entry.Products, r.ProductID)
		entry.TotalItems += r.RecommendedQuantity
	}

	schedule := make([]domain.ScheduleEntry, 0, len(byDate))
	for _, entry := range byDate {
		sort.Strings(entry.Products)
		schedule = append(schedule, *entry)
	}
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Date.Before(schedule[j].Date) })
	return schedule
}

func buildSummary(analyzed int, recs []domain.Recommendation) domain.ReportSummary {
	summary := domain.ReportSummary{
		TotalProductsAnalyzed: analyzed,
		RecommendedCount:      len(recs),
	}
	if len(recs) == 0 {
		return summary
	}

	var confSum float64
	next := dayOf(recs[0].SuggestedOrderDate)
	for _, r := range recs {
		confSum += r.ConfidenceScore
		if r.ConfidenceScore >= HighConfidenceThreshold {
			summary.HighConfidenceProducts++
		}
		if d := dayOf(r.SuggestedOrderDate); d.Before(next) {
			next = d
		}
	}
	summary.AvgConfidence = confSum / float64(len(recs))
	summary.NextSuggestedOrderDate = &next
	return summary
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atLeastOne(x float64) int {
	if x < 1 {
		return 1
	}
	return int(x)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
