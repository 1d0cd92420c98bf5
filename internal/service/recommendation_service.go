package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/cache"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
	"github.com/demandcast/backend-go/internal/forecast"
	"github.com/demandcast/backend-go/internal/insight"
	"github.com/demandcast/backend-go/internal/recommend"
	"github.com/demandcast/backend-go/internal/repository"
)

// RecommendationService runs the end-to-end pipeline for one customer-facility
// request: cache check, demand analysis, forecaster call, scoring, narrative
// insight, assembly, cache write. Collaborator failures never fail the
// request; they route into the fallback branches and the response carries a
// source label so consumers can tell full-fidelity from degraded output.
type RecommendationService struct {
	orders     repository.OrderRepository
	catalog    repository.CatalogRepository
	cache      cache.ResultCache
	forecaster forecast.Forecaster
	insights   insight.Client
	analyzer   *features.DemandAnalyzer
	builder    *forecast.RequestBuilder
	engine     *recommend.Engine
	now        func() time.Time
}

func NewRecommendationService(
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	resultCache cache.ResultCache,
	forecaster forecast.Forecaster,
	insights insight.Client,
	builder *forecast.RequestBuilder,
) *RecommendationService {
	if resultCache == nil {
		resultCache = cache.NewNoopResultCache()
	}
	return &RecommendationService{
		orders:     orders,
		catalog:    catalog,
		cache:      resultCache,
		forecaster: forecaster,
		insights:   insights,
		analyzer:   features.NewDemandAnalyzer(),
		builder:    builder,
		engine:     recommend.NewEngine(),
		now:        time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *RecommendationService) WithClock(now func() time.Time) *RecommendationService {
	s.now = now
	return s
}

func (s *RecommendationService) Recommend(ctx context.Context, customerID, facilityID string) (*domain.RecommendationReport, error) {
	asOf := s.now().UTC()
	key := cache.Key(customerID, facilityID, asOf)

	if report, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("recommendation: cache get failed")
	}

	relations, err := s.catalog.CustomerProducts(ctx, customerID, facilityID)
	if err != nil {
		return nil, fmt.Errorf("load customer products: %w", err)
	}
	if len(relations) == 0 {
		return nil, domain.ErrNoProducts
	}

	orderRows, err := s.orders.OrdersForCustomerFacility(ctx, customerID, facilityID)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	profiles := s.analyzer.Analyze(orderRows)
	catalogByProduct := make(map[string]domain.CustomerProduct, len(relations))
	for _, rel := range relations {
		catalogByProduct[rel.ProductID] = rel
	}
	rowsByProduct := make(map[string][]domain.OrderRecord)
	for _, row := range orderRows {
		rowsByProduct[row.ProductID] = append(rowsByProduct[row.ProductID], row)
	}

	scored, usedForecast := s.scoreProducts(ctx, profiles, catalogByProduct, rowsByProduct, asOf)

	source := domain.SourceForecast
	if !usedForecast {
		source = domain.SourceFallback
	}

	var (
		narrative  domain.InsightNarrative
		rationales map[string]string
	)
	if usedForecast {
		narrative, rationales = s.fetchInsights(ctx, customerID, facilityID, scored)
	} else {
		narrative = insight.TemplatedNarrative(statsFor(scored))
	}

	report := s.engine.Assemble(customerID, facilityID, source, scored, narrative, rationales, asOf)

	// An abandoned request must not leave a partial cache entry behind.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := s.cache.Put(ctx, key, &report); err != nil {
		log.Warn().Err(err).Msg("recommendation: cache put failed")
	}

	return &report, nil
}

// scoreProducts runs the forecast path for products with enough history and
// the history-only fallback for the rest. Any forecaster or parse failure
// drops the whole request onto the fallback path; usedForecast reports which
// path produced the scores.
func (s *RecommendationService) scoreProducts(
	ctx context.Context,
	profiles []domain.ProductDemandProfile,
	catalogByProduct map[string]domain.CustomerProduct,
	rowsByProduct map[string][]domain.OrderRecord,
	asOf time.Time,
) ([]recommend.ScoredProduct, bool) {
	type pending struct {
		profile domain.ProductDemandProfile
		catalog domain.CustomerProduct
	}

	var (
		instances    []domain.TimeSeriesInstance
		forecastable []pending
		shortHistory []pending
	)

	for _, profile := range profiles {
		rel, ok := catalogByProduct[profile.ProductID]
		if !ok {
			continue
		}

		instance, err := s.builder.Build(profile, features.DailySeries(rowsByProduct[profile.ProductID]), rel.Category)
		if err != nil {
			log.Warn().Err(err).Str("product_id", profile.ProductID).Msg("recommendation: skipping unbuildable instance")
			shortHistory = append(shortHistory, pending{profile, rel})
			continue
		}
		if instance.InsufficientHistory {
			shortHistory = append(shortHistory, pending{profile, rel})
			continue
		}

		instances = append(instances, instance)
		forecastable = append(forecastable, pending{profile, rel})
	}

	fallbackAll := func() []recommend.ScoredProduct {
		all := append(append([]pending(nil), forecastable...), shortHistory...)
		scored := make([]recommend.ScoredProduct, 0, len(all))
		for _, p := range all {
			conf, trend := s.engine.FallbackScore(p.profile, asOf)
			scored = append(scored, recommend.ScoredProduct{
				Profile:    p.profile,
				Catalog:    p.catalog,
				Confidence: conf,
				Trend:      trend,
			})
		}
		return scored
	}

	if len(instances) == 0 {
		return fallbackAll(), false
	}

	predictions, err := s.forecaster.Forecast(ctx, instances)
	if err != nil {
		log.Warn().Err(err).Msg("recommendation: forecaster call failed, using fallback")
		return fallbackAll(), false
	}

	scored := make([]recommend.ScoredProduct, 0, len(forecastable)+len(shortHistory))
	for i, p := range forecastable {
		firstForecastDate := instances[i].Start.AddDate(0, 0, len(instances[i].TargetHistory))
		records, err := forecast.ParsePrediction(instances[i].ItemID, predictions[i], firstForecastDate, s.builder.PredictionLength())
		if err != nil {
			log.Warn().Err(err).Str("item_id", instances[i].ItemID).Msg("recommendation: forecast parse failed, using fallback")
			return fallbackAll(), false
		}

		conf, trend := forecast.Score(records)
		scored = append(scored, recommend.ScoredProduct{
			Profile:    p.profile,
			Catalog:    p.catalog,
			Confidence: conf,
			Trend:      trend,
			Forecasts:  records,
		})
	}

	// Products below the history minimum keep their fallback scores without
	// degrading the rest of the request.
	for _, p := range shortHistory {
		conf, trend := s.engine.FallbackScore(p.profile, asOf)
		scored = append(scored, recommend.ScoredProduct{
			Profile:    p.profile,
			Catalog:    p.catalog,
			Confidence: conf,
			Trend:      trend,
		})
	}

	return scored, true
}

// fetchInsights calls the narrative model; on any failure the forecast-based
// ranking is kept and the narrative falls back to templates.
func (s *RecommendationService) fetchInsights(ctx context.Context, customerID, facilityID string, scored []recommend.ScoredProduct) (domain.InsightNarrative, map[string]string) {
	stats := statsFor(scored)

	if s.insights == nil {
		return insight.TemplatedNarrative(stats), nil
	}

	result, err := s.insights.Generate(ctx, customerID, facilityID, stats)
	if err != nil {
		log.Warn().Err(err).Msg("recommendation: insight call failed, using templated narrative")
		return insight.TemplatedNarrative(stats), nil
	}

	rationales := make(map[string]string, len(result.RecommendedProducts))
	for _, p := range result.RecommendedProducts {
		if p.Rationale != "" {
			rationales[p.ProductID] = p.Rationale
		}
	}
	return result.Insights, rationales
}

func statsFor(scored []recommend.ScoredProduct) []insight.ProductStat {
	stats := make([]insight.ProductStat, 0, len(scored))
	for _, p := range scored {
		var spread float64
		if len(p.Forecasts) > 0 {
			for _, f := range p.Forecasts {
				spread += f.P90 - f.P10
			}
			spread /= float64(len(p.Forecasts))
		}

		stats = append(stats, insight.ProductStat{
			ProductID:      p.Profile.ProductID,
			ProductName:    p.Catalog.ProductName,
			AvgDemand:      p.Profile.AvgQuantity,
			Trend:          p.Trend,
			Confidence:     p.Confidence,
			QuantileSpread: spread,
		})
	}
	return stats
}
