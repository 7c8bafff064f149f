package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType defines the ledger entry categories
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeRefund     TransactionType = "REFUND"
)

// IsCredit reports whether the type increases the balance
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeRefund
}

// TransactionStatus defines ledger entry states. Only COMPLETED entries
// contribute to the balance.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an append-only ledger entry. Amount is signed: positive for
// credits, negative for debits. Immutable after creation except for Status
// and Description.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	WalletID    uuid.UUID         `json:"wallet_id"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      decimal.Decimal   `json:"amount"`
	OrderID     *uuid.UUID        `json:"order_id,omitempty"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTransaction builds a ledger entry from a positive magnitude, signing
// the amount from the type
func NewTransaction(walletID uuid.UUID, txType TransactionType, status TransactionStatus, magnitude decimal.Decimal, orderID *uuid.UUID, description string) (*Transaction, error) {
	if !magnitude.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount := magnitude
	if !txType.IsCredit() {
		amount = magnitude.Neg()
	}
	return &Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        txType,
		Status:      status,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
		CreatedAt:   time.Now(),
	}, nil
}

// SettlementDelta returns the balance change caused by moving the entry
// from oldStatus to newStatus. The delta applies exactly when the COMPLETED
// edge is crossed: entering COMPLETED applies the amount, leaving COMPLETED
// reverses it, anything else is zero.
func (t *Transaction) SettlementDelta(oldStatus, newStatus TransactionStatus) decimal.Decimal {
	switch {
	case oldStatus != TransactionStatusCompleted && newStatus == TransactionStatusCompleted:
		return t.Amount
	case oldStatus == TransactionStatusCompleted && newStatus != TransactionStatusCompleted:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// RemovalDelta returns the balance change required before deleting the entry
func (t *Transaction) RemovalDelta() decimal.Decimal {
	if t.Status == TransactionStatusCompleted {
		return t.Amount.Neg()
	}
	return decimal.Zero
}
