package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/order"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// OrderRepository implements the order.Repository interface for PostgreSQL
type OrderRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(logger *slog.Logger, db *persistence.PostgresDB) order.Repository {
	return &OrderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *OrderRepository) WithTx(tx pgx.Tx) order.Repository {
	return &OrderRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const orderColumns = `id, user_id, address_id, payment_method_id, total_amount, shipping_fee, status,
		order_date, shipped_date, tracking_number, estimated_delivery_date, latitude, longitude,
		created_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.AddressID,
		&o.PaymentMethodID,
		&o.TotalAmount,
		&o.ShippingFee,
		&o.Status,
		&o.OrderDate,
		&o.ShippedDate,
		&o.TrackingNumber,
		&o.EstimatedDeliveryDate,
		&o.Latitude,
		&o.Longitude,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create stores a new order
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address_id, payment_method_id, total_amount, shipping_fee,
			status, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.AddressID,
		o.PaymentMethodID,
		o.TotalAmount,
		o.ShippingFee,
		o.Status,
		o.OrderDate,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound{OrderID: id}
		}
		r.logger.Error("Failed to get order", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

// LockByID obtains a pessimistic lock on the order and returns its current
// state. Must be called within a transaction; the lock is held until commit
// or rollback.
func (r *OrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound{OrderID: id}
		}
		r.logger.Error("Failed to lock order", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return o, nil
}

// UpdateStatus persists a status change. The caller has already validated the
// transition against the lifecycle graph while holding the row lock.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update order status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}

// SetShippingInfo stores tracking number, ship date and the optional ETA
func (r *OrderRepository) SetShippingInfo(ctx context.Context, id uuid.UUID, trackingNumber string, shippedAt time.Time, eta *time.Time) error {
	query := `
		UPDATE orders
		SET tracking_number = $1, shipped_date = $2, estimated_delivery_date = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, trackingNumber, shippedAt, eta, id)
	if err != nil {
		r.logger.Error("Failed to set shipping info", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set shipping info: %w", err)
	}

	if result.RowsAffected() == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}

// SetLocation updates the courier position for a shipped order
func (r *OrderRepository) SetLocation(ctx context.Context, id uuid.UUID, latitude, longitude float64) error {
	query := `
		UPDATE orders
		SET latitude = $1, longitude = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, latitude, longitude, id)
	if err != nil {
		r.logger.Error("Failed to set order location", "id", id.String(), "error", err)
		return fmt.Errorf("failed to set order location: %w", err)
	}

	if result.RowsAffected() == 0 {
		return order.ErrOrderNotFound{OrderID: id}
	}

	return nil
}

// orderFilterClause builds the WHERE fragment shared by listing and counting
func orderFilterClause(filter order.SearchFilter, args []interface{}) (string, []interface{}) {
	clause := "TRUE"
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clause += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clause += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		clause += " AND order_date >= $" + strconv.Itoa(len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		clause += " AND order_date <= $" + strconv.Itoa(len(args))
	}
	return clause, args
}

// List retrieves orders matching the filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter order.SearchFilter, limit, offset int) ([]*order.Order, error) {
	var args []interface{}
	clause, args := orderFilterClause(filter, args)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ` + clause + `
		ORDER BY order_date DESC
		LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(offsetPos)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// Count counts orders matching the filter for pagination
func (r *OrderRepository) Count(ctx context.Context, filter order.SearchFilter) (int64, error) {
	var args []interface{}
	clause, args := orderFilterClause(filter, args)

	query := `SELECT COUNT(*) FROM orders WHERE ` + clause

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count orders", "error", err)
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}
