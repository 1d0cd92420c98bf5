// backend-go/internal/repository/postgres/catalog_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/demandcast/backend-go/internal/domain"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Product(ctx context.Context, productID string) (*domain.Product, error) {
	query := `
		SELECT product_id, product_name, category, vendor
		FROM products
		WHERE product_id = $1
	`

	var product domain.Product
	err := sqlx.GetContext(ctx, r.db, &product, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *catalogRepository) CustomerProducts(ctx context.Context, customerID, facilityID string) ([]domain.CustomerProduct, error) {
	query := `
		SELECT cp.customer_id, cp.facility_id, cp.product_id,
		       p.product_name, p.category, p.vendor,
		       cp.order_count, cp.first_order_date, cp.last_order_date
		FROM customer_products cp
		JOIN products p ON p.product_id = cp.product_id
		WHERE cp.customer_id = $1 AND cp.facility_id = $2
		ORDER BY cp.product_id
	`

	var relations []domain.CustomerProduct
	if err := sqlx.SelectContext(ctx, r.db, &relations, query, customerID, facilityID); err != nil {
		return nil, fmt.Errorf("failed to get customer products: %w", err)
	}
	return relations, nil
}

func (r *catalogRepository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO products (product_id, product_name, category, vendor, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (product_id)
			DO UPDATE SET
				product_name = EXCLUDED.product_name,
				category = EXCLUDED.category,
				vendor = EXCLUDED.vendor,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			if _, err := stmt.ExecContext(ctx, p.ProductID, p.ProductName, p.Category, p.Vendor); err != nil {
				return fmt.Errorf("failed to upsert product: %w", err)
			}
		}
		return nil
	})
}

func (r *catalogRepository) UpsertCustomerProducts(ctx context.Context, relations []domain.CustomerProduct) error {
	if len(relations) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO customer_products (
				customer_id, facility_id, product_id,
				order_count, first_order_date, last_order_date, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (customer_id, facility_id, product_id)
			DO UPDATE SET
				order_count = EXCLUDED.order_count,
				first_order_date = EXCLUDED.first_order_date,
				last_order_date = EXCLUDED.last_order_date,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, cp := range relations {
			_, err := stmt.ExecContext(
				ctx,
				cp.CustomerID,
				cp.FacilityID,
				cp.ProductID,
				cp.OrderCount,
				cp.FirstOrderDate,
				cp.LastOrderDate,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert customer product: %w", err)
			}
		}
		return nil
	})
}
