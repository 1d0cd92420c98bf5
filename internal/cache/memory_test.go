package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandcast/backend-go/internal/domain"
)

func TestKeyDeterministicWithinDayBucket(t *testing.T) {
	morning := time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 20, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2025, 3, 21, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, Key("cust1", "fac1", morning), Key("cust1", "fac1", evening))
	assert.NotEqual(t, Key("cust1", "fac1", morning), Key("cust1", "fac1", nextDay))
	assert.NotEqual(t, Key("cust1", "fac1", morning), Key("cust2", "fac1", morning))
	assert.NotEqual(t, Key("cust1", "fac1", morning), Key("cust1", "fac2", morning))
}

func TestMemoryCachePutGet(t *testing.T) {
	c := NewMemoryResultCache(time.Hour)
	ctx := context.Background()

	report := &domain.RecommendationReport{ID: "r1", CustomerID: "cust1"}
	require.NoError(t, c.Put(ctx, "k1", report))

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r1", got.ID)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	current := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	c := NewMemoryResultCache(time.Hour).WithClock(func() time.Time { return current })
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", &domain.RecommendationReport{ID: "r1"}))

	current = current.Add(59 * time.Minute)
	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Cached reports must not alias caller memory: mutating a stored or returned
// report leaves later hits untouched, matching the redis round-trip.
func TestMemoryCacheReturnsIndependentCopies(t *testing.T) {
	c := NewMemoryResultCache(time.Hour)
	ctx := context.Background()

	report := &domain.RecommendationReport{
		ID:              "r1",
		Recommendations: []domain.Recommendation{{ProductID: "prod1", ConfidenceScore: 0.9}},
	}
	require.NoError(t, c.Put(ctx, "k1", report))

	report.Recommendations[0].ConfidenceScore = 0.1

	first, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.9, first.Recommendations[0].ConfidenceScore, 1e-9)

	first.Recommendations[0].ProductID = "mutated"

	second, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "prod1", second.Recommendations[0].ProductID)
}

func TestMemoryCacheLastWriteWins(t *testing.T) {
	c := NewMemoryResultCache(time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", &domain.RecommendationReport{ID: "first"}))
	require.NoError(t, c.Put(ctx, "k1", &domain.RecommendationReport{ID: "second"}))

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.ID)
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	c := NewNoopResultCache()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", &domain.RecommendationReport{ID: "r1"}))
	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}
