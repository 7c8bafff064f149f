package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*Address, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates a missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements errors.Is; a target with a nil ID matches any instance
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || e.AccountID == t.AccountID
}

// ErrAddressNotFound indicates a missing address or one owned by another user
type ErrAddressNotFound struct {
	AddressID uuid.UUID
}

func (e ErrAddressNotFound) Error() string {
	return "address not found: " + e.AddressID.String()
}

func (e ErrAddressNotFound) Is(target error) bool {
	t, ok := target.(ErrAddressNotFound)
	if !ok {
		return false
	}
	return t.AddressID == uuid.Nil || e.AddressID == t.AddressID
}

// ErrPaymentMethodNotFound indicates a missing payment method
type ErrPaymentMethodNotFound struct {
	PaymentMethodID uuid.UUID
}

func (e ErrPaymentMethodNotFound) Error() string {
	return "payment method not found: " + e.PaymentMethodID.String()
}

func (e ErrPaymentMethodNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentMethodNotFound)
	if !ok {
		return false
	}
	return t.PaymentMethodID == uuid.Nil || e.PaymentMethodID == t.PaymentMethodID
}
