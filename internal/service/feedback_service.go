package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/repository"
)

var validFeedbackTypes = map[string]bool{
	"accuracy":   true,
	"usefulness": true,
	"general":    true,
}

type FeedbackService struct {
	repo repository.FeedbackRepository
	now  func() time.Time
}

func NewFeedbackService(repo repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo, now: time.Now}
}

// Submit validates and stores one feedback record, assigning its id and
// timestamp.
func (s *FeedbackService) Submit(ctx context.Context, record *domain.FeedbackRecord) error {
	if record.CustomerID == "" || record.FacilityID == "" {
		return fmt.Errorf("customer_id and facility_id are required")
	}
	if record.PredictionID == "" {
		return fmt.Errorf("prediction_id is required")
	}
	if !validFeedbackTypes[record.FeedbackType] {
		return fmt.Errorf("feedback_type must be one of accuracy, usefulness or general")
	}
	if record.Rating < 1 || record.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	record.ID = uuid.NewString()
	record.CreatedAt = s.now().UTC()

	if err := s.repo.SaveFeedback(ctx, record); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (s *FeedbackService) ForPrediction(ctx context.Context, predictionID string) ([]domain.FeedbackRecord, error) {
	if predictionID == "" {
		return nil, fmt.Errorf("prediction_id is required")
	}
	return s.repo.FeedbackForPrediction(ctx, predictionID)
}
