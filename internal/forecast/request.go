package forecast

import (
	"fmt"
	"sync"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
)

const (
	DefaultContextLength    = 28
	DefaultPredictionLength = 14
	DefaultMinHistoryPoints = 3
)

// BuilderConfig sets the forecast window geometry. Zero values fall back to
// the defaults.
type BuilderConfig struct {
	ContextLength    int
	PredictionLength int
	MinHistoryPoints int
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.ContextLength <= 0 {
		c.ContextLength = DefaultContextLength
	}
	if c.PredictionLength <= 0 {
		c.PredictionLength = DefaultPredictionLength
	}
	if c.MinHistoryPoints <= 0 {
		c.MinHistoryPoints = DefaultMinHistoryPoints
	}
	return c
}

// FeatureMapping assigns stable integer indexes to categorical values, clamped
// to a fixed cardinality so the model's embedding range is never exceeded.
// Safe for concurrent use; one mapping is shared across all requests so
// indexes stay stable for the process lifetime.
type FeatureMapping struct {
	mu          sync.Mutex
	cardinality int
	index       map[string]int
}

func NewFeatureMapping(cardinality int) *FeatureMapping {
	if cardinality < 1 {
		cardinality = 1
	}
	return &FeatureMapping{cardinality: cardinality, index: make(map[string]int)}
}

// Index returns the value's assigned index, allocating the next free slot on
// first sight. Values beyond the cardinality share the last slot.
func (m *FeatureMapping) Index(value string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.index[value]; ok {
		return idx
	}
	idx := len(m.index)
	if idx >= m.cardinality {
		idx = m.cardinality - 1
	}
	m.index[value] = idx
	return idx
}

// RequestBuilder assembles model-ready time series instances from demand
// profiles and their daily order series.
type RequestBuilder struct {
	cfg        BuilderConfig
	encoder    *features.CalendarEncoder
	customers  *FeatureMapping
	facilities *FeatureMapping
	categories *FeatureMapping
}

func NewRequestBuilder(cfg BuilderConfig, encoder *features.CalendarEncoder) *RequestBuilder {
	return &RequestBuilder{
		cfg:        cfg.withDefaults(),
		encoder:    encoder,
		customers:  NewFeatureMapping(50),
		facilities: NewFeatureMapping(100),
		categories: NewFeatureMapping(20),
	}
}

func (b *RequestBuilder) PredictionLength() int { return b.cfg.PredictionLength }

// Build produces one TimeSeriesInstance for a product. The context window ends
// at the last order date; days without orders are zero-filled. Dynamic
// features span the context window plus the prediction horizon, since the
// model conditions on future covariates. Histories shorter than the configured
// minimum are marked insufficient, not rejected; the caller decides whether to
// forecast anyway.
func (b *RequestBuilder) Build(profile domain.ProductDemandProfile, series []domain.DailyQuantity, category string) (domain.TimeSeriesInstance, error) {
	itemID, err := domain.ComposeItemID(profile.CustomerID, profile.FacilityID, profile.ProductID)
	if err != nil {
		return domain.TimeSeriesInstance{}, fmt.Errorf("compose item id: %w", err)
	}

	end := dayOf(profile.LastOrderDate)
	start := end.AddDate(0, 0, -(b.cfg.ContextLength - 1))

	byDate := make(map[time.Time]float64, len(series))
	for _, p := range series {
		byDate[dayOf(p.Date)] = p.Quantity
	}

	target := make([]float64, b.cfg.ContextLength)
	for i := range target {
		target[i] = byDate[start.AddDate(0, 0, i)]
	}

	span := b.cfg.ContextLength + b.cfg.PredictionLength
	dowFeat := make([]float64, span)
	monthFeat := make([]float64, span)
	for i := 0; i < span; i++ {
		v := b.encoder.Encode(start.AddDate(0, 0, i))
		dowFeat[i] = float64(v.DayOfWeek) / 6.0
		monthFeat[i] = float64(v.Month-1) / 11.0
	}

	return domain.TimeSeriesInstance{
		ItemID:          itemID,
		Start:           start,
		TargetHistory:   target,
		DynamicFeatures: [][]float64{dowFeat, monthFeat},
		Categorical: []int{
			b.customers.Index(profile.CustomerID),
			b.facilities.Index(profile.FacilityID),
			b.categories.Index(category),
		},
		InsufficientHistory: len(series) < b.cfg.MinHistoryPoints,
	}, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
