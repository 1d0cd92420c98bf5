package repository

import (
	"context"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

// OrderRepository reads and writes historical order records.
type OrderRepository interface {
	// OrdersForCustomerFacility returns all order history for a
	// customer-facility pair, oldest first.
	OrdersForCustomerFacility(ctx context.Context, customerID, facilityID string) ([]domain.OrderRecord, error)

	// OrdersForProduct returns the order history of one product within a
	// customer-facility pair, oldest first.
	OrdersForProduct(ctx context.Context, customerID, facilityID, productID string) ([]domain.OrderRecord, error)

	// SaveOrders persists a batch of ingested order records.
	SaveOrders(ctx context.Context, orders []domain.OrderRecord) error
}

// CatalogRepository is the read-mostly product catalog surface.
type CatalogRepository interface {
	// Product returns metadata for one product id.
	Product(ctx context.Context, productID string) (*domain.Product, error)

	// CustomerProducts returns the relationship records for a
	// customer-facility pair. Empty result means ErrNoProducts upstream.
	CustomerProducts(ctx context.Context, customerID, facilityID string) ([]domain.CustomerProduct, error)

	// UpsertProducts refreshes catalog metadata from an ingestion batch.
	UpsertProducts(ctx context.Context, products []domain.Product) error

	// UpsertCustomerProducts refreshes relationship records from an
	// ingestion batch.
	UpsertCustomerProducts(ctx context.Context, relations []domain.CustomerProduct) error
}

// FeedbackRepository stores user feedback on delivered reports.
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, record *domain.FeedbackRecord) error
	FeedbackForPrediction(ctx context.Context, predictionID string) ([]domain.FeedbackRecord, error)
}

// IngestLogRepository records ingestion runs so the watcher can skip objects
// it has already processed.
type IngestLogRepository interface {
	IsProcessed(ctx context.Context, objectKey, etag string) (bool, error)
	MarkProcessed(ctx context.Context, objectKey, etag string, rowCount int, processedAt time.Time) error
}
