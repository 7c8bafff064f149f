// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the commerce backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/account"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(), // Initialize with the pool
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx, // Use the transaction
		logger:  r.logger,
	}
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, email, full_name, role, created_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Email,
		&acc.FullName,
		&acc.Role,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// GetAddress retrieves one of the account's addresses by its ID. The owning
// user is part of the lookup so callers cannot ship to someone else's address.
func (r *AccountRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*account.Address, error) {
	query := `
		SELECT id, user_id, district, city, country
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var addr account.Address
	err := r.querier.QueryRow(ctx, query, addressID, userID).Scan(
		&addr.ID,
		&addr.UserID,
		&addr.District,
		&addr.City,
		&addr.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAddressNotFound{AddressID: addressID}
		}
		r.logger.Error("Failed to get address", "id", addressID.String(), "error", err)
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return &addr, nil
}

// GetPaymentMethod retrieves an active payment method by its ID
func (r *AccountRepository) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*account.PaymentMethod, error) {
	query := `
		SELECT id, name, is_active
		FROM payment_methods
		WHERE id = $1 AND is_active = TRUE
	`

	var pm account.PaymentMethod
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&pm.ID,
		&pm.Name,
		&pm.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrPaymentMethodNotFound{PaymentMethodID: id}
		}
		r.logger.Error("Failed to get payment method", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}

	return &pm, nil
}
