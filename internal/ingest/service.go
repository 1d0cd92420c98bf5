package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/repository"
	"github.com/demandcast/backend-go/internal/storage"
)

// Service pulls order CSVs from object storage, validates them and persists
// orders plus the derived catalog records.
type Service struct {
	store     storage.ObjectStorage
	orders    repository.OrderRepository
	catalog   repository.CatalogRepository
	ingestLog repository.IngestLogRepository
	prefix    string
	now       func() time.Time
}

func NewService(
	store storage.ObjectStorage,
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	ingestLog repository.IngestLogRepository,
	prefix string,
) *Service {
	return &Service{
		store:     store,
		orders:    orders,
		catalog:   catalog,
		ingestLog: ingestLog,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Run ingests every unprocessed CSV object under the configured prefix.
// Returns the number of objects ingested.
func (s *Service) Run(ctx context.Context) (int, error) {
	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("list storage objects: %w", err)
	}

	ingested := 0
	for _, obj := range objects {
		select {
		case <-ctx.Done():
			return ingested, ctx.Err()
		default:
		}

		processed, err := s.ingestLog.IsProcessed(ctx, obj.Key, obj.ETag)
		if err != nil {
			return ingested, fmt.Errorf("check ingest log for %s: %w", obj.Key, err)
		}
		if processed {
			continue
		}

		report, err := s.IngestObject(ctx, obj.Key, obj.ETag)
		if err != nil {
			return ingested, fmt.Errorf("ingest %s: %w", obj.Key, err)
		}

		log.Info().
			Str("object", obj.Key).
			Int("rows", report.RowCount).
			Int("accepted", report.AcceptedCount).
			Msg("ingest: object processed")
		ingested++
	}
	return ingested, nil
}

// IngestObject processes a single storage object end to end.
func (s *Service) IngestObject(ctx context.Context, key, etag string) (*ValidationReport, error) {
	body, err := s.store.OpenObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer body.Close()

	parsed, err := ParseOrders(body)
	if err != nil {
		return nil, err
	}

	records, report := Validate(parsed)
	if len(records) == 0 {
		log.Warn().Str("object", key).Msg("ingest: no valid rows in object")
		return &report, s.ingestLog.MarkProcessed(ctx, key, etag, 0, s.now().UTC())
	}

	if err := s.orders.SaveOrders(ctx, records); err != nil {
		return nil, fmt.Errorf("save orders: %w", err)
	}

	products, relations := deriveCatalog(records)
	if err := s.catalog.UpsertProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}
	if err := s.catalog.UpsertCustomerProducts(ctx, relations); err != nil {
		return nil, fmt.Errorf("upsert customer products: %w", err)
	}

	if err := s.ingestLog.MarkProcessed(ctx, key, etag, len(records), s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}
	return &report, nil
}

// deriveCatalog extracts product metadata and customer-facility-product
// relationship records from an order batch.
func deriveCatalog(records []domain.OrderRecord) ([]domain.Product, []domain.CustomerProduct) {
	type relationKey struct {
		customerID string
		facilityID string
		productID  string
	}

	productsByID := make(map[string]domain.Product)
	relationsByKey := make(map[relationKey]*domain.CustomerProduct)

	for _, r := range records {
		if existing, ok := productsByID[r.ProductID]; !ok || existing.ProductName == "" {
			productsByID[r.ProductID] = domain.Product{
				ProductID:   r.ProductID,
				ProductName: r.Description,
				Category:    r.Category,
			}
		}

		key := relationKey{r.CustomerID, r.FacilityID, r.ProductID}
		rel, ok := relationsByKey[key]
		if !ok {
			rel = &domain.CustomerProduct{
				CustomerID:     r.CustomerID,
				FacilityID:     r.FacilityID,
				ProductID:      r.ProductID,
				ProductName:    r.Description,
				Category:       r.Category,
				FirstOrderDate: r.OrderDate,
				LastOrderDate:  r.OrderDate,
			}
			relationsByKey[key] = rel
		}

		rel.OrderCount++
		if r.OrderDate.Before(rel.FirstOrderDate) {
			rel.FirstOrderDate = r.OrderDate
		}
		if r.OrderDate.After(rel.LastOrderDate) {
			rel.LastOrderDate = r.OrderDate
		}
	}

	products := make([]domain.Product, 0, len(productsByID))
	for _, p := range productsByID {
		products = append(products, p)
	}
	relations := make([]domain.CustomerProduct, 0, len(relationsByKey))
	for _, rel := range relationsByKey {
		relations = append(relations, *rel)
	}
	return products, relations
}
