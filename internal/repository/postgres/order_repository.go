// backend-go/internal/repository/postgres/order_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/demandcast/backend-go/internal/domain"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) OrdersForCustomerFacility(ctx context.Context, customerID, facilityID string) ([]domain.OrderRecord, error) {
	query := `
		SELECT order_date, customer_id, facility_id, product_id,
		       quantity, unit_price, category, description
		FROM orders
		WHERE customer_id = $1 AND facility_id = $2
		ORDER BY order_date ASC
	`

	var orders []domain.OrderRecord
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, customerID, facilityID); err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) OrdersForProduct(ctx context.Context, customerID, facilityID, productID string) ([]domain.OrderRecord, error) {
	query := `
		SELECT order_date, customer_id, facility_id, product_id,
		       quantity, unit_price, category, description
		FROM orders
		WHERE customer_id = $1 AND facility_id = $2 AND product_id = $3
		ORDER BY order_date ASC
	`

	var orders []domain.OrderRecord
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, customerID, facilityID, productID); err != nil {
		return nil, fmt.Errorf("failed to get product orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) SaveOrders(ctx context.Context, orders []domain.OrderRecord) error {
	if len(orders) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (
				order_date, customer_id, facility_id, product_id,
				quantity, unit_price, category, description, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (order_date, customer_id, facility_id, product_id)
			DO UPDATE SET
				quantity = EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				category = EXCLUDED.category,
				description = EXCLUDED.description,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, o := range orders {
			_, err := stmt.ExecContext(
				ctx,
				o.OrderDate,
				o.CustomerID,
				o.FacilityID,
				o.ProductID,
				o.Quantity,
				o.UnitPrice,
				o.Category,
				o.Description,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order: %w", err)
			}
		}
		return nil
	})
}
