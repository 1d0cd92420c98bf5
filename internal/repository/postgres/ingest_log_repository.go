// backend-go/internal/repository/postgres/ingest_log_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"
)

type ingestLogRepository struct {
	db *DB
}

func NewIngestLogRepository(db *DB) *ingestLogRepository {
	return &ingestLogRepository{db: db}
}

func (r *ingestLogRepository) IsProcessed(ctx context.Context, objectKey, etag string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ingest_log
			WHERE object_key = $1 AND etag = $2
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, objectKey, etag).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ingest log: %w", err)
	}
	return exists, nil
}

func (r *ingestLogRepository) MarkProcessed(ctx context.Context, objectKey, etag string, rowCount int, processedAt time.Time) error {
	query := `
		INSERT INTO ingest_log (object_key, etag, row_count, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (object_key, etag)
		DO UPDATE SET row_count = EXCLUDED.row_count, processed_at = EXCLUDED.processed_at
	`

	if _, err := r.db.ExecContext(ctx, query, objectKey, etag, rowCount, processedAt); err != nil {
		return fmt.Errorf("failed to mark object processed: %w", err)
	}
	return nil
}
