package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/insight"
)

var testNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

type stubOrders struct {
	orders []domain.OrderRecord
}

func (s *stubOrders) OrdersForCustomerFacility(ctx context.Context, customerID, facilityID string) ([]domain.OrderRecord, error) {
	return s.orders, nil
}

func (s *stubOrders) OrdersForProduct(ctx context.Context, customerID, facilityID, productID string) ([]domain.OrderRecord, error) {
	var out []domain.OrderRecord
	for _, o := range s.orders {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) SaveOrders(ctx context.Context, orders []domain.OrderRecord) error { return nil }

type stubCatalog struct {
	relations []domain.CustomerProduct
}

func (s *stubCatalog) Product(ctx context.Context, productID string) (*domain.Product, error) {
	return nil, nil
}

func (s *stubCatalog) CustomerProducts(ctx context.Context, customerID, facilityID string) ([]domain.CustomerProduct, error) {
	return s.relations, nil
}

func (s *stubCatalog) UpsertProducts(ctx context.Context, products []domain.Product) error {
	return nil
}

func (s *stubCatalog) UpsertCustomerProducts(ctx context.Context, relations []domain.CustomerProduct) error {
	return nil
}

type stubForecaster struct {
	calls int
	err   error
}

func (s *stubForecaster) Forecast(ctx context.Context, instances []domain.TimeSeriesInstance) ([]forecast.RawPrediction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	preds := make([]forecast.RawPrediction, len(instances))
	for i := range instances {
		p10 := make([]float64, 5)
		p50 := make([]float64, 5)
		p90 := make([]float64, 5)
		for j := range p50 {
			p10[j], p50[j], p90[j] = 8, 10, 12
		}
		preds[i] = forecast.RawPrediction{
			Quantiles: map[string][]float64{"0.1": p10, "0.5": p50, "0.9": p90},
		}
	}
	return preds, nil
}

type stubInsight struct {
	calls  int
	err    error
	result *insight.Result
}

func (s *stubInsight) Generate(ctx context.Context, customerID, facilityID string, stats []insight.ProductStat) (*insight.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testOrders(productID string, dates ...time.Time) []domain.OrderRecord {
	out := make([]domain.OrderRecord, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.OrderRecord{
			OrderDate:  d,
			CustomerID: "cust1",
			FacilityID: "fac1",
			ProductID:  productID,
			Quantity:   10,
		})
	}
	return out
}

func testRelations(productIDs ...string) []domain.CustomerProduct {
	out := make([]domain.CustomerProduct, 0, len(productIDs))
	for _, id := range productIDs {
		out = append(out, domain.CustomerProduct{
			CustomerID:  "cust1",
			FacilityID:  "fac1",
			ProductID:   id,
			ProductName: "Product " + id,
			Category:    "general",
			Vendor:      "acme",
		})
	}
	return out
}

func newTestService(orders *stubOrders, catalog *stubCatalog, fc *stubForecaster, ins *stubInsight) *RecommendationService {
	builder := forecast.NewRequestBuilder(forecast.BuilderConfig{
		ContextLength:    14,
		PredictionLength: 5,
		MinHistoryPoints: 3,
	}, features.NewCalendarEncoder())

	resultCache := cache.NewMemoryResultCache(time.Hour).WithClock(func() time.Time { return testNow })

	return NewRecommendationService(orders, catalog, resultCache, fc, ins, builder).
		WithClock(func() time.Time { return testNow })
}

func richHistory(productID string) []domain.OrderRecord {
	dates := make([]time.Time, 0, 6)
	for i := 0; i < 6; i++ {
		dates = append(dates, testNow.AddDate(0, 0, -2*(6-i)))
	}
	return testOrders(productID, dates...)
}

func TestRecommendForecastPath(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	fc := &stubForecaster{}
	ins := &stubInsight{result: &insight.Result{
		RecommendedProducts: []insight.ProductInsight{{ProductID: "p1", Rationale: "steady weekly demand"}},
		Insights:            domain.InsightNarrative{SeasonalTrends: "flat"},
	}}

	svc := newTestService(orders, &stubCatalog{relations: testRelations("p1")}, fc, ins)

	report, err := svc.Recommend(context.Background(), "cust1", "fac1")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceForecast, report.Source)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "steady weekly demand", report.Recommendations[0].Rationale)
	assert.Equal(t, "flat", report.Insights.SeasonalTrends)
	assert.NotEmpty(t, report.Schedule)
	assert.Equal(t, 1, report.Summary.RecommendedCount)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 1, ins.calls)
}

func TestRecommendServedFromCacheOnRepeat(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	fc := &stubForecaster{}
	ins := &stubInsight{result: &insight.Result{}}

	svc := newTestService(orders, &stubCatalog{relations: testRelations("p1")}, fc, ins)
	ctx := context.Background()

	first, err := svc.Recommend(ctx, "cust1", "fac1")
	require.NoError(t, err)

	second, err := svc.Recommend(ctx, "cust1", "fac1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	// No recomputation on the warm path.
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 1, ins.calls)
}

func TestRecommendForecasterTimeoutFallsBack(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	fc := &stubForecaster{err: domain.ErrForecastTimeout}
	ins := &stubInsight{result: &insight.Result{}}

	svc := newTestService(orders, &stubCatalog{relations: testRelations("p1")}, fc, ins)

	report, err := svc.Recommend(context.Background(), "cust1", "fac1")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, report.Source)
	require.NotEmpty(t, report.Recommendations)
	for _, rec := range report.Recommendations {
		assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, rec.ConfidenceScore, 1.0)
		assert.NotEmpty(t, rec.Rationale)
	}
	assert.NotEmpty(t, report.Schedule)
	assert.NotEmpty(t, report.Insights.SeasonalTrends)
	// The narrative model is never consulted on the fallback path.
	assert.Equal(t, 0, ins.calls)
}

func TestRecommendMalformedInsightKeepsForecastRanking(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	fc := &stubForecaster{}
	ins := &stubInsight{err: &domain.InsightParseError{Reason: "no json object in response"}}

	svc := newTestService(orders, &stubCatalog{relations: testRelations("p1")}, fc, ins)

	report, err := svc.Recommend(context.Background(), "cust1", "fac1")
	require.NoError(t, err)

	// Forecast quality is not degraded by narrative failure.
	assert.Equal(t, domain.SourceForecast, report.Source)
	require.Len(t, report.Recommendations, 1)
	assert.NotEmpty(t, report.Recommendations[0].Rationale)
	assert.NotEmpty(t, report.Insights.RiskAssessment)
}

func TestRecommendNoProducts(t *testing.T) {
	svc := newTestService(&stubOrders{}, &stubCatalog{}, &stubForecaster{}, &stubInsight{})

	_, err := svc.Recommend(context.Background(), "cust1", "fac1")
	assert.ErrorIs(t, err, domain.ErrNoProducts)
}

func TestRecommendShortHistoryScoredPerProduct(t *testing.T) {
	rows := append(richHistory("p1"), testOrders("p2", testNow.AddDate(0, 0, -1))...)
	orders := &stubOrders{orders: rows}
	fc := &stubForecaster{}
	ins := &stubInsight{result: &insight.Result{}}

	svc := newTestService(orders, &stubCatalog{relations: testRelations("p1", "p2")}, fc, ins)

	report, err := svc.Recommend(context.Background(), "cust1", "fac1")
	require.NoError(t, err)

	// One thin product does not push the whole request onto the fallback path.
	assert.Equal(t, domain.SourceForecast, report.Source)
	assert.Len(t, report.Recommendations, 2)
	assert.Equal(t, 1, fc.calls)
}

func TestRecommendCancelledContextSkipsCacheWrite(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	fc := &stubForecaster{}
	ins := &stubInsight{result: &insight.Result{}}

	resultCache := cache.NewMemoryResultCache(time.Hour).WithClock(func() time.Time { return testNow })
	builder := forecast.NewRequestBuilder(forecast.BuilderConfig{
		ContextLength: 14, PredictionLength: 5, MinHistoryPoints: 3,
	}, features.NewCalendarEncoder())
	svc := NewRecommendationService(orders, &stubCatalog{relations: testRelations("p1")}, resultCache, fc, ins, builder).
		WithClock(func() time.Time { return testNow })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Recommend(ctx, "cust1", "fac1")
	require.Error(t, err)

	_, ok, err := resultCache.Get(context.Background(), cache.Key("cust1", "fac1", testNow))
	require.NoError(t, err)
	assert.False(t, ok, "no partial cache write after cancellation")
}

func TestPredictProductForecastAndFallback(t *testing.T) {
	orders := &stubOrders{orders: richHistory("p1")}
	catalog := &stubCatalog{relations: testRelations("p1")}

	svc := newTestService(orders, catalog, &stubForecaster{}, &stubInsight{result: &insight.Result{}})
	prediction, err := svc.PredictProduct(context.Background(), "cust1", "fac1", "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceForecast, prediction.Source)
	assert.Len(t, prediction.Forecasts, 5)

	svcDown := newTestService(orders, catalog, &stubForecaster{err: domain.ErrForecastTimeout}, &stubInsight{})
	prediction, err = svcDown.PredictProduct(context.Background(), "cust1", "fac1", "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, prediction.Source)
	assert.Empty(t, prediction.Forecasts)
}

func TestPredictProductNoHistory(t *testing.T) {
	svc := newTestService(&stubOrders{}, &stubCatalog{}, &stubForecaster{}, &stubInsight{})

	_, err := svc.PredictProduct(context.Background(), "cust1", "fac1", "missing")
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}
