package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
	"github.com/demandcast/backend-go/internal/forecast"
)

// PredictProduct forecasts a single product. Forecaster failures and thin
// history degrade to a history-only prediction rather than failing.
func (s *RecommendationService) PredictProduct(ctx context.Context, customerID, facilityID, productID string) (*domain.ProductPrediction, error) {
	asOf := s.now().UTC()

	rows, err := s.orders.OrdersForProduct(ctx, customerID, facilityID, productID)
	if err != nil {
		return nil, fmt.Errorf("load product orders: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInsufficientHistory
	}

	profiles := s.analyzer.Analyze(rows)
	profile := profiles[0]

	prediction := &domain.ProductPrediction{
		CustomerID:  customerID,
		FacilityID:  facilityID,
		ProductID:   productID,
		GeneratedAt: asOf,
	}

	category := ""
	if rel, err := s.catalog.CustomerProducts(ctx, customerID, facilityID); err == nil {
		for _, cp := range rel {
			if cp.ProductID == productID {
				category = cp.Category
				break
			}
		}
	}

	instance, err := s.builder.Build(profile, features.DailySeries(rows), category)
	if err == nil && !instance.InsufficientHistory {
		predictions, ferr := s.forecaster.Forecast(ctx, []domain.TimeSeriesInstance{instance})
		if ferr == nil && len(predictions) == 1 {
			firstForecastDate := instance.Start.AddDate(0, 0, len(instance.TargetHistory))
			records, perr := forecast.ParsePrediction(instance.ItemID, predictions[0], firstForecastDate, s.builder.PredictionLength())
			if perr == nil {
				conf, trend := forecast.Score(records)
				prediction.Source = domain.SourceForecast
				prediction.Confidence = conf
				prediction.Trend = trend
				prediction.Forecasts = records
				return prediction, nil
			}
			log.Warn().Err(perr).Str("product_id", productID).Msg("prediction: forecast parse failed, using fallback")
		} else if ferr != nil {
			log.Warn().Err(ferr).Str("product_id", productID).Msg("prediction: forecaster call failed, using fallback")
		}
	}

	conf, trend := s.engine.FallbackScore(profile, asOf)
	prediction.Source = domain.SourceFallback
	prediction.Confidence = conf
	prediction.Trend = trend
	return prediction, nil
}
