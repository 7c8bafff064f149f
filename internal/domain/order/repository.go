package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrEmptyCart rejects order creation from a cart with no items
var ErrEmptyCart = errors.New("cannot create an order from an empty cart")

// SearchFilter narrows order listings
type SearchFilter struct {
	UserID   *uuid.UUID
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time
}

// Repository defines order persistence operations
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// LockByID acquires a row lock for the duration of the ambient
	// transaction; every status transition is validated under it
	LockByID(ctx context.Context, id uuid.UUID) (*Order, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetShippingInfo(ctx context.Context, id uuid.UUID, trackingNumber string, shippedAt time.Time, eta *time.Time) error
	SetLocation(ctx context.Context, id uuid.UUID, latitude, longitude float64) error
	List(ctx context.Context, filter SearchFilter, limit, offset int) ([]*Order, error)
	Count(ctx context.Context, filter SearchFilter) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// DetailRepository manages order line persistence
type DetailRepository interface {
	Create(ctx context.Context, d *Detail) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Detail, error)
	WithTx(tx pgx.Tx) DetailRepository
}

// ErrOrderNotFound indicates a missing order or one outside the caller's scope
type ErrOrderNotFound struct {
	OrderID uuid.UUID
}

func (e ErrOrderNotFound) Error() string {
	return "order not found: " + e.OrderID.String()
}

// Is implements errors.Is; a target with a nil ID matches any instance
func (e ErrOrderNotFound) Is(target error) bool {
	t, ok := target.(ErrOrderNotFound)
	if !ok {
		return false
	}
	return t.OrderID == uuid.Nil || e.OrderID == t.OrderID
}

// ErrInvalidTransition indicates a disallowed state machine move
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidTransition) Error() string {
	return "invalid order transition: " + string(e.From) + " -> " + string(e.To)
}

func (e ErrInvalidTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidTransition)
	if !ok {
		return false
	}
	if t.From == "" && t.To == "" {
		return true
	}
	return e.From == t.From && e.To == t.To
}
