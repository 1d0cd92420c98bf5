package features

import (
	"math"
	"sort"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

// DemandAnalyzer derives per-product demand statistics from raw order history.
type DemandAnalyzer struct{}

func NewDemandAnalyzer() *DemandAnalyzer {
	return &DemandAnalyzer{}
}

type productKey struct {
	customerID string
	facilityID string
	productID  string
}

// Analyze groups order records by (customer, facility, product) and computes a
// demand profile for each group. Quantity statistics use the population
// standard deviation. Spacing statistics are computed over distinct order
// dates; a single-date history has zero spacing.
func (a *DemandAnalyzer) Analyze(records []domain.OrderRecord) []domain.ProductDemandProfile {
	groups := make(map[productKey][]domain.OrderRecord)
	for _, r := range records {
		key := productKey{r.CustomerID, r.FacilityID, r.ProductID}
		groups[key] = append(groups[key], r)
	}

	profiles := make([]domain.ProductDemandProfile, 0, len(groups))
	for key, rows := range groups {
		profiles = append(profiles, buildProfile(key, rows))
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CustomerID != profiles[j].CustomerID {
			return profiles[i].CustomerID < profiles[j].CustomerID
		}
		if profiles[i].FacilityID != profiles[j].FacilityID {
			return profiles[i].FacilityID < profiles[j].FacilityID
		}
		return profiles[i].ProductID < profiles[j].ProductID
	})
	return profiles
}

func buildProfile(key productKey, rows []domain.OrderRecord) domain.ProductDemandProfile {
	quantities := make([]float64, 0, len(rows))
	first, last := rows[0].OrderDate, rows[0].OrderDate
	distinctDates := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		quantities = append(quantities, r.Quantity)
		if r.OrderDate.Before(first) {
			first = r.OrderDate
		}
		if r.OrderDate.After(last) {
			last = r.OrderDate
		}
		distinctDates[r.OrderDate.Format("2006-01-02")] = struct{}{}
	}

	avg := mean(quantities)
	stddev := populationStddev(quantities, avg)

	var avgDaysBetween float64
	if n := len(distinctDates); n > 1 {
		spanDays := last.Sub(first).Hours() / 24
		avgDaysBetween = spanDays / float64(n-1)
	}

	var cv float64
	if avg > 0 {
		cv = stddev / avg
	}

	return domain.ProductDemandProfile{
		CustomerID:             key.customerID,
		FacilityID:             key.facilityID,
		ProductID:              key.productID,
		OrderCount:             len(rows),
		AvgQuantity:            avg,
		StddevQuantity:         stddev,
		AvgDaysBetweenOrders:   avgDaysBetween,
		FirstOrderDate:         first,
		LastOrderDate:          last,
		CoefficientOfVariation: cv,
		TrendSlope:             trendSlope(DailySeries(rows)),
	}
}

// DailySeries sums quantities per distinct order date and returns the series
// sorted ascending by date.
func DailySeries(rows []domain.OrderRecord) []domain.DailyQuantity {
	byDate := make(map[time.Time]float64)
	for _, r := range rows {
		day := time.Date(r.OrderDate.Year(), r.OrderDate.Month(), r.OrderDate.Day(), 0, 0, 0, 0, time.UTC)
		byDate[day] += r.Quantity
	}

	series := make([]domain.DailyQuantity, 0, len(byDate))
	for date, qty := range byDate {
		series = append(series, domain.DailyQuantity{Date: date, Quantity: qty})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStddev(xs []float64, avg float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// trendSlope fits a least-squares line over the daily series, with x as the
// point index. Fewer than two points yield zero slope.
func trendSlope(series []domain.DailyQuantity) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range series {
		x := float64(i)
		sumX += x
		sumY += p.Quantity
		sumXY += x * p.Quantity
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}
