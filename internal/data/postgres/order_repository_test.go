package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/order"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRows(o *order.Order) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "address_id", "payment_method_id", "total_amount", "shipping_fee", "status",
		"order_date", "shipped_date", "tracking_number", "estimated_delivery_date", "latitude", "longitude",
		"created_at", "updated_at",
	}).AddRow(
		o.ID, o.UserID, o.AddressID, o.PaymentMethodID, o.TotalAmount, o.ShippingFee, o.Status,
		o.OrderDate, o.ShippedDate, o.TrackingNumber, o.EstimatedDeliveryDate, o.Latitude, o.Longitude,
		o.CreatedAt, o.UpdatedAt,
	)
}

const orderSelectPattern = `SELECT id, user_id, address_id, payment_method_id, total_amount, shipping_fee, status,
		order_date, shipped_date, tracking_number, estimated_delivery_date, latitude, longitude,
		created_at, updated_at FROM orders WHERE id = \$1`

func TestOrderRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OrderRepository{querier: mock, logger: logger}
	orderID := uuid.New()
	now := time.Now()

	expected := &order.Order{
		ID:              orderID,
		UserID:          uuid.New(),
		AddressID:       uuid.New(),
		PaymentMethodID: uuid.New(),
		TotalAmount:     decimal.RequireFromString("64.97"),
		ShippingFee:     decimal.RequireFromString("5.00"),
		Status:          order.StatusPending,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(orderSelectPattern).WithArgs(orderID).WillReturnRows(orderRows(expected))

		o, err := repo.GetByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.True(t, expected.TotalAmount.Equal(o.TotalAmount))
		assert.Nil(t, o.TrackingNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(orderSelectPattern).WithArgs(orderID).WillReturnError(pgx.ErrNoRows)

		o, err := repo.GetByID(ctx, orderID)
		assert.Nil(t, o)
		var notFound order.ErrOrderNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, orderID, notFound.OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_LockByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OrderRepository{querier: mock, logger: logger}
	orderID := uuid.New()
	now := time.Now()

	expected := &order.Order{
		ID:              orderID,
		UserID:          uuid.New(),
		AddressID:       uuid.New(),
		PaymentMethodID: uuid.New(),
		TotalAmount:     decimal.RequireFromString("20.00"),
		ShippingFee:     decimal.RequireFromString("5.00"),
		Status:          order.StatusProcessing,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	mock.ExpectQuery(orderSelectPattern + ` FOR UPDATE`).WithArgs(orderID).WillReturnRows(orderRows(expected))

	o, err := repo.LockByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OrderRepository{querier: mock, logger: logger}
	orderID := uuid.New()

	query := `
		UPDATE orders
		SET status = \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(order.StatusShipped, orderID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, orderID, order.StatusShipped)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order missing", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(order.StatusShipped, orderID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, orderID, order.StatusShipped)
		assert.ErrorIs(t, err, order.ErrOrderNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_SetLocation(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OrderRepository{querier: mock, logger: logger}
	orderID := uuid.New()

	query := `
		UPDATE orders
		SET latitude = \$1, longitude = \$2, updated_at = NOW\(\)
		WHERE id = \$3
	`

	mock.ExpectExec(query).WithArgs(41.01, 28.97, orderID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetLocation(ctx, orderID, 41.01, 28.97)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
