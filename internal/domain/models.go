// backend-go/internal/domain/models.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderRecord represents a single historical transaction row. Records are
// immutable once ingested; all statistics are derived from them.
type OrderRecord struct {
	OrderDate   time.Time `json:"order_date" db:"order_date"`
	CustomerID  string    `json:"customer_id" db:"customer_id"`
	FacilityID  string    `json:"facility_id" db:"facility_id"`
	ProductID   string    `json:"product_id" db:"product_id"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price,omitempty" db:"unit_price"`
	Category    string    `json:"category,omitempty" db:"category"`
	Description string    `json:"description,omitempty" db:"description"`
}

// CalendarFeatureVector holds the calendar-derived features for a single date.
// Cyclical pairs satisfy sin^2 + cos^2 == 1 within floating tolerance.
type CalendarFeatureVector struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Day            int     `json:"day"`
	DayOfWeek      int     `json:"day_of_week"` // Monday=0 .. Sunday=6
	Quarter        int     `json:"quarter"`
	IsWeekend      bool    `json:"is_weekend"`
	IsHoliday      bool    `json:"is_holiday"`
	HolidayName    string  `json:"holiday_name,omitempty"`
	DayOfWeekSin   float64 `json:"day_of_week_sin"`
	DayOfWeekCos   float64 `json:"day_of_week_cos"`
	DayOfMonthSin  float64 `json:"day_of_month_sin"`
	DayOfMonthCos  float64 `json:"day_of_month_cos"`
	MonthOfYearSin float64 `json:"month_of_year_sin"`
	MonthOfYearCos float64 `json:"month_of_year_cos"`
}

// ProductDemandProfile aggregates the order history of one
// (customer, facility, product) combination. Quantity statistics use the
// population standard deviation; the same convention is applied wherever
// volatility is derived from history.
type ProductDemandProfile struct {
	CustomerID           string    `json:"customer_id" db:"customer_id"`
	FacilityID           string    `json:"facility_id" db:"facility_id"`
	ProductID            string    `json:"product_id" db:"product_id"`
	OrderCount           int       `json:"order_count" db:"order_count"`
	AvgQuantity          float64   `json:"avg_quantity" db:"avg_quantity"`
	StddevQuantity       float64   `json:"stddev_quantity" db:"stddev_quantity"`
	AvgDaysBetweenOrders float64   `json:"avg_days_between_orders" db:"avg_days_between_orders"`
	FirstOrderDate       time.Time `json:"first_order_date" db:"first_order_date"`
	LastOrderDate        time.Time `json:"last_order_date" db:"last_order_date"`
	// Supplementary statistics carried for fallback scoring.
	CoefficientOfVariation float64 `json:"coefficient_of_variation" db:"coefficient_of_variation"`
	TrendSlope             float64 `json:"trend_slope" db:"trend_slope"`
}

// DailyQuantity is one point of a product's daily demand series (order
// quantities summed per distinct order date).
type DailyQuantity struct {
	Date     time.Time
	Quantity float64
}

// TimeSeriesInstance is a model-ready forecast request instance for a single
// item. TargetHistory covers the context window; DynamicFeatures cover the
// context window plus the prediction horizon.
type TimeSeriesInstance struct {
	ItemID              string      `json:"item_id"`
	Start               time.Time   `json:"start"`
	TargetHistory       []float64   `json:"target"`
	DynamicFeatures     [][]float64 `json:"dynamic_feat"`
	Categorical         []int       `json:"cat"`
	InsufficientHistory bool        `json:"-"`
}

const itemIDSeparator = "_"

// ComposeItemID builds the composite forecast item identifier. Identifier
// components must not contain the separator, otherwise the id would not
// round-trip through ParseItemID.
func ComposeItemID(customerID, facilityID, productID string) (string, error) {
	for _, part := range []string{customerID, facilityID, productID} {
		if part == "" {
			return "", fmt.Errorf("item id component must not be empty")
		}
		if strings.Contains(part, itemIDSeparator) {
			return "", fmt.Errorf("item id component %q must not contain %q", part, itemIDSeparator)
		}
	}
	return customerID + itemIDSeparator + facilityID + itemIDSeparator + productID, nil
}

// ParseItemID splits a composite item id back into its components.
func ParseItemID(itemID string) (customerID, facilityID, productID string, err error) {
	parts := strings.SplitN(itemID, itemIDSeparator, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed item id %q", itemID)
	}
	return parts[0], parts[1], parts[2], nil
}

// QuantileForecast is one predicted date of a probabilistic forecast.
// P10 <= P50 <= P90 always holds after parsing.
type QuantileForecast struct {
	Date time.Time `json:"date"`
	P10  float64   `json:"p10"`
	P50  float64   `json:"p50"`
	P90  float64   `json:"p90"`
	Mean float64   `json:"mean"`
}

// TrendClass classifies the direction of forecast demand for one item.
type TrendClass string

const (
	TrendIncreasing TrendClass = "increasing"
	TrendDecreasing TrendClass = "decreasing"
	TrendStable     TrendClass = "stable"
	TrendVolatile   TrendClass = "volatile"
)

// ReportSource labels whether a recommendation payload came from the full
// forecast pipeline or from the deterministic history-only fallback.
type ReportSource string

const (
	SourceForecast ReportSource = "forecast"
	SourceFallback ReportSource = "fallback"
)

// Product holds catalog metadata for a product.
type Product struct {
	ProductID   string `json:"product_id" db:"product_id"`
	ProductName string `json:"product_name" db:"product_name"`
	Category    string `json:"category" db:"category"`
	Vendor      string `json:"vendor" db:"vendor"`
}

// CustomerProduct is a catalog relationship record between a
// customer-facility pair and one of its products.
type CustomerProduct struct {
	CustomerID     string    `json:"customer_id" db:"customer_id"`
	FacilityID     string    `json:"facility_id" db:"facility_id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	ProductName    string    `json:"product_name" db:"product_name"`
	Category       string    `json:"category" db:"category"`
	Vendor         string    `json:"vendor" db:"vendor"`
	OrderCount     int       `json:"order_count" db:"order_count"`
	FirstOrderDate time.Time `json:"first_order_date" db:"first_order_date"`
	LastOrderDate  time.Time `json:"last_order_date" db:"last_order_date"`
}

// Recommendation is one ranked reorder suggestion.
type Recommendation struct {
	ProductID           string     `json:"product_id"`
	ProductName         string     `json:"product_name"`
	Category            string     `json:"category"`
	Vendor              string     `json:"vendor"`
	RecommendedQuantity int        `json:"recommended_quantity"`
	ConfidenceScore     float64    `json:"confidence_score"`
	Trend               TrendClass `json:"trend"`
	Rationale           string     `json:"rationale"`
	SuggestedOrderDate  time.Time  `json:"suggested_order_date"`
}

// ScheduleEntry groups products whose suggested order dates fall on the same
// day into one combined ordering action.
type ScheduleEntry struct {
	Date       time.Time `json:"date"`
	Products   []string  `json:"products"`
	TotalItems int       `json:"total_items"`
}

// InsightNarrative is the narrative section of a recommendation report,
// produced either by the LLM collaborator or by the deterministic template.
type InsightNarrative struct {
	SeasonalTrends   string `json:"seasonal_trends"`
	RiskAssessment   string `json:"risk_assessment"`
	CostOptimization string `json:"cost_optimization"`
}

// ReportSummary aggregates the report for quick consumption.
type ReportSummary struct {
	TotalProductsAnalyzed  int        `json:"total_products_analyzed"`
	RecommendedCount       int        `json:"recommended_products_count"`
	NextSuggestedOrderDate *time.Time `json:"next_suggested_order_date,omitempty"`
	AvgConfidence          float64    `json:"avg_confidence"`
	HighConfidenceProducts int        `json:"high_confidence_products"`
}

// RecommendationReport is the complete payload returned to the caller and
// stored in the result cache.
type RecommendationReport struct {
	ID              string           `json:"id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	CustomerID      string           `json:"customer_id"`
	FacilityID      string           `json:"facility_id"`
	Source          ReportSource     `json:"source"`
	Recommendations []Recommendation `json:"recommendations"`
	Schedule        []ScheduleEntry  `json:"ordering_schedule"`
	Insights        InsightNarrative `json:"insights"`
	Summary         ReportSummary    `json:"summary"`
}

// ProductPrediction is the per-product forecast payload served by the
// predictions endpoint. Forecasts is empty on the fallback path.
type ProductPrediction struct {
	CustomerID  string             `json:"customer_id"`
	FacilityID  string             `json:"facility_id"`
	ProductID   string             `json:"product_id"`
	Source      ReportSource       `json:"source"`
	Confidence  float64            `json:"confidence"`
	Trend       TrendClass         `json:"trend"`
	Forecasts   []QuantileForecast `json:"forecasts,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// FeedbackRecord captures user feedback on a delivered recommendation report.
type FeedbackRecord struct {
	ID                string    `json:"id" db:"id"`
	CustomerID        string    `json:"customer_id" db:"customer_id"`
	FacilityID        string    `json:"facility_id" db:"facility_id"`
	PredictionID      string    `json:"prediction_id" db:"prediction_id"`
	FeedbackType      string    `json:"feedback_type" db:"feedback_type"` // accuracy, usefulness, general
	Rating            int       `json:"rating" db:"rating"`               // 1-5
	Comments          string    `json:"comments,omitempty" db:"comments"`
	UserID            string    `json:"user_id" db:"user_id"`
	ProductID         string    `json:"product_id,omitempty" db:"product_id"`
	ActualQuantity    *float64  `json:"actual_quantity,omitempty" db:"actual_quantity"`
	PredictedQuantity *float64  `json:"predicted_quantity,omitempty" db:"predicted_quantity"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
