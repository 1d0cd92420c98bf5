// backend-go/internal/repository/postgres/feedback_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/demandcast/backend-go/internal/domain"
)

type feedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) SaveFeedback(ctx context.Context, record *domain.FeedbackRecord) error {
	query := `
		INSERT INTO feedback (
			id, customer_id, facility_id, prediction_id, feedback_type,
			rating, comments, user_id, product_id,
			actual_quantity, predicted_quantity, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.CustomerID,
		record.FacilityID,
		record.PredictionID,
		record.FeedbackType,
		record.Rating,
		record.Comments,
		record.UserID,
		record.ProductID,
		record.ActualQuantity,
		record.PredictedQuantity,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) FeedbackForPrediction(ctx context.Context, predictionID string) ([]domain.FeedbackRecord, error) {
	query := `
		SELECT id, customer_id, facility_id, prediction_id, feedback_type,
		       rating, comments, user_id, product_id,
		       actual_quantity, predicted_quantity, created_at
		FROM feedback
		WHERE prediction_id = $1
		ORDER BY created_at DESC
	`

	var records []domain.FeedbackRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, predictionID); err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return records, nil
}
