package forecast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
)

func testProfile(lastOrder time.Time) domain.ProductDemandProfile {
	return domain.ProductDemandProfile{
		CustomerID:    "cust1",
		FacilityID:    "fac1",
		ProductID:     "prod1",
		LastOrderDate: lastOrder,
	}
}

func TestBuildWindowGeometry(t *testing.T) {
	b := NewRequestBuilder(BuilderConfig{ContextLength: 7, PredictionLength: 3, MinHistoryPoints: 2}, features.NewCalendarEncoder())

	last := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	series := []domain.DailyQuantity{
		{Date: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), Quantity: 5},
		{Date: last, Quantity: 8},
	}

	inst, err := b.Build(testProfile(last), series, "beverages")
	require.NoError(t, err)

	assert.Equal(t, "cust1_fac1_prod1", inst.ItemID)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), inst.Start)
	require.Len(t, inst.TargetHistory, 7)
	// Zero-filled except the two order days.
	assert.Equal(t, []float64{0, 0, 5, 0, 0, 0, 8}, inst.TargetHistory)
}

func TestBuildDynamicFeaturesCoverPredictionHorizon(t *testing.T) {
	b := NewRequestBuilder(BuilderConfig{ContextLength: 7, PredictionLength: 3}, features.NewCalendarEncoder())

	last := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // a Monday
	inst, err := b.Build(testProfile(last), []domain.DailyQuantity{{Date: last, Quantity: 1}}, "")
	require.NoError(t, err)

	require.Len(t, inst.DynamicFeatures, 2)
	for _, feat := range inst.DynamicFeatures {
		assert.Len(t, feat, 10)
	}

	dow := inst.DynamicFeatures[0]
	// Window starts 2025-03-04, a Tuesday, so the first covariate is 1/6.
	assert.InDelta(t, 1.0/6.0, dow[0], 1e-9)
	// The last forecast day is 2025-03-13, a Thursday.
	assert.InDelta(t, 3.0/6.0, dow[9], 1e-9)

	month := inst.DynamicFeatures[1]
	assert.InDelta(t, 2.0/11.0, month[0], 1e-9)
}

func TestBuildMarksInsufficientHistory(t *testing.T) {
	b := NewRequestBuilder(BuilderConfig{MinHistoryPoints: 3}, features.NewCalendarEncoder())

	last := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inst, err := b.Build(testProfile(last), []domain.DailyQuantity{{Date: last, Quantity: 1}}, "")
	require.NoError(t, err)
	assert.True(t, inst.InsufficientHistory)

	series := []domain.DailyQuantity{
		{Date: last.AddDate(0, 0, -4), Quantity: 1},
		{Date: last.AddDate(0, 0, -2), Quantity: 1},
		{Date: last, Quantity: 1},
	}
	inst, err = b.Build(testProfile(last), series, "")
	require.NoError(t, err)
	assert.False(t, inst.InsufficientHistory)
}

func TestBuildRejectsMalformedIdentifiers(t *testing.T) {
	b := NewRequestBuilder(BuilderConfig{}, features.NewCalendarEncoder())

	profile := testProfile(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	profile.ProductID = "bad_product"
	_, err := b.Build(profile, nil, "")
	assert.Error(t, err)
}

// One builder is shared across all API requests, so Build must be safe to
// call from many goroutines at once.
func TestBuildConcurrentRequests(t *testing.T) {
	b := NewRequestBuilder(BuilderConfig{ContextLength: 7, PredictionLength: 3, MinHistoryPoints: 2}, features.NewCalendarEncoder())
	last := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				profile := domain.ProductDemandProfile{
					CustomerID:    fmt.Sprintf("cust%d", i%60),
					FacilityID:    fmt.Sprintf("fac%d", g),
					ProductID:     fmt.Sprintf("prod%d", i),
					LastOrderDate: last,
				}
				series := []domain.DailyQuantity{
					{Date: last.AddDate(0, 0, -2), Quantity: float64(i)},
					{Date: last, Quantity: 1},
				}
				if _, err := b.Build(profile, series, fmt.Sprintf("cat%d", i%25)); err != nil {
					errs <- err
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Indexes allocated under contention are still stable and clamped.
	assert.Equal(t, b.customers.Index("cust0"), b.customers.Index("cust0"))
	assert.Less(t, b.categories.Index("cat24"), 20)
}

func TestFeatureMappingClampsCardinality(t *testing.T) {
	m := NewFeatureMapping(2)

	assert.Equal(t, 0, m.Index("a"))
	assert.Equal(t, 1, m.Index("b"))
	// Overflow shares the last slot.
	assert.Equal(t, 1, m.Index("c"))
	// Indexes are stable on repeat lookups.
	assert.Equal(t, 0, m.Index("a"))
	assert.Equal(t, 1, m.Index("c"))
}
