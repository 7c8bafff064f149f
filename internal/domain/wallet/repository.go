package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines wallet persistence operations
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// LockByUserID acquires a row lock for the duration of the ambient
	// transaction; every balance check-then-change goes through it
	LockByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// ApplyBalanceDelta adds a signed amount to the balance in one statement
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	SetPin(ctx context.Context, id uuid.UUID, pinHash string) error
	WithTx(tx pgx.Tx) Repository
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	Type     *TransactionType
	Status   *TransactionStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// TransactionRepository manages ledger entry persistence with pagination support
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status TransactionStatus, description *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUserID(ctx context.Context, userID uuid.UUID, filter TransactionFilter, limit, offset int) ([]*Transaction, error)
	CountByUserID(ctx context.Context, userID uuid.UUID, filter TransactionFilter) (int64, error)
	RecentByWalletID(ctx context.Context, walletID uuid.UUID, limit int) ([]*Transaction, error)
	WithTx(tx pgx.Tx) TransactionRepository
}

// ErrWalletNotFound indicates a missing wallet
type ErrWalletNotFound struct {
	UserID uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found for user: " + e.UserID.String()
}

// Is implements errors.Is; a target with a nil ID matches any instance
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	return t.UserID == uuid.Nil || e.UserID == t.UserID
}

// ErrTransactionNotFound indicates a missing ledger entry
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "wallet transaction not found: " + e.TransactionID.String()
}

func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || e.TransactionID == t.TransactionID
}
