package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/order"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// OrderDetailRepository implements the order.DetailRepository interface for PostgreSQL
type OrderDetailRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewOrderDetailRepository creates a new PostgreSQL order detail repository
func NewOrderDetailRepository(logger *slog.Logger, db *persistence.PostgresDB) order.DetailRepository {
	return &OrderDetailRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *OrderDetailRepository) WithTx(tx pgx.Tx) order.DetailRepository {
	return &OrderDetailRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new order line
func (r *OrderDetailRepository) Create(ctx context.Context, d *order.Detail) error {
	query := `
		INSERT INTO order_details (id, order_id, product_variant_id, quantity, price_each)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query,
		d.ID,
		d.OrderID,
		d.VariantID,
		d.Quantity,
		d.PriceEach,
	)
	if err != nil {
		r.logger.Error("Failed to create order detail", "order_id", d.OrderID.String(), "error", err)
		return fmt.Errorf("failed to create order detail: %w", err)
	}

	return nil
}

// ListByOrderID retrieves all lines of an order
func (r *OrderDetailRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*order.Detail, error) {
	query := `
		SELECT id, order_id, product_variant_id, quantity, price_each
		FROM order_details
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.querier.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to list order details", "order_id", orderID.String(), "error", err)
		return nil, fmt.Errorf("failed to list order details: %w", err)
	}
	defer rows.Close()

	var details []*order.Detail
	for rows.Next() {
		var d order.Detail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.VariantID, &d.Quantity, &d.PriceEach); err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order details: %w", err)
	}

	return details, nil
}
