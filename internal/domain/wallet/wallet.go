package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidPin        = errors.New("invalid wallet pin")
	ErrPinMismatch       = errors.New("pin confirmation does not match")
	ErrAlreadyActivated  = errors.New("wallet already activated")
	ErrNotActivated      = errors.New("wallet has no pin set")
)

// Wallet holds a stored-value balance for one account. The balance is
// always the signed sum of the wallet's COMPLETED transactions; every
// change to it happens in the same store transaction as the ledger entry
// that explains it.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	PinHash   *string         `json:"-"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PinSet reports whether the wallet has been activated with a PIN
func (w *Wallet) PinSet() bool {
	return w.PinHash != nil && *w.PinHash != ""
}

// CanDebit checks if the balance covers the given amount
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
