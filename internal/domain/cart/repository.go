package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines cart persistence operations
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]*Item, error)

	// AddItem accumulates quantity onto an existing (cart, variant) line or
	// inserts a new one
	AddItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) error

	SetItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error
	DeleteAllItems(ctx context.Context, cartID uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrCartNotFound indicates a missing cart
type ErrCartNotFound struct {
	UserID uuid.UUID
}

func (e ErrCartNotFound) Error() string {
	return "cart not found for user: " + e.UserID.String()
}

// Is implements errors.Is; a target with a nil ID matches any instance
func (e ErrCartNotFound) Is(target error) bool {
	t, ok := target.(ErrCartNotFound)
	if !ok {
		return false
	}
	return t.UserID == uuid.Nil || e.UserID == t.UserID
}

// ErrItemNotFound indicates a missing cart line
type ErrItemNotFound struct {
	VariantID uuid.UUID
}

func (e ErrItemNotFound) Error() string {
	return "cart item not found for variant: " + e.VariantID.String()
}

func (e ErrItemNotFound) Is(target error) bool {
	t, ok := target.(ErrItemNotFound)
	if !ok {
		return false
	}
	return t.VariantID == uuid.Nil || e.VariantID == t.VariantID
}
