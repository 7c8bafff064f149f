package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// WalletTransactionRepository implements the wallet.TransactionRepository
// interface for PostgreSQL
type WalletTransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWalletTransactionRepository creates a new PostgreSQL ledger repository
func NewWalletTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.TransactionRepository {
	return &WalletTransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *WalletTransactionRepository) WithTx(tx pgx.Tx) wallet.TransactionRepository {
	return &WalletTransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `id, wallet_id, type, status, amount, order_id, description, created_at`

func scanTransaction(row pgx.Row) (*wallet.Transaction, error) {
	var txn wallet.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.WalletID,
		&txn.Type,
		&txn.Status,
		&txn.Amount,
		&txn.OrderID,
		&txn.Description,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Create stores a new ledger entry
func (r *WalletTransactionRepository) Create(ctx context.Context, txn *wallet.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (id, wallet_id, type, status, amount, order_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.WalletID,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.OrderID,
		txn.Description,
		txn.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create wallet transaction", "error", err)
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *WalletTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get wallet transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet transaction: %w", err)
	}

	return txn, nil
}

// UpdateStatus changes the status and, when provided, the description of a
// ledger entry. Amount and type are immutable.
func (r *WalletTransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.TransactionStatus, description *string) error {
	query := `
		UPDATE wallet_transactions
		SET status = $1, description = COALESCE($2, description)
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, description, id)
	if err != nil {
		r.logger.Error("Failed to update wallet transaction", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update wallet transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// Delete removes a ledger entry. The caller has already reversed any
// COMPLETED balance contribution within the same transaction.
func (r *WalletTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM wallet_transactions WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete wallet transaction", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete wallet transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// transactionFilterClause builds the WHERE fragment shared by listing and
// counting, starting argument numbering after the fixed user_id parameter
func transactionFilterClause(filter wallet.TransactionFilter, args []interface{}) (string, []interface{}) {
	clause := ""
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clause += " AND t.type = $" + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clause += " AND t.status = $" + strconv.Itoa(len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		clause += " AND t.created_at >= $" + strconv.Itoa(len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		clause += " AND t.created_at <= $" + strconv.Itoa(len(args))
	}
	return clause, args
}

// ListByUserID retrieves ledger entries for a user's wallet, newest first
func (r *WalletTransactionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter, limit, offset int) ([]*wallet.Transaction, error) {
	args := []interface{}{userID}
	clause, args := transactionFilterClause(filter, args)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := `
		SELECT t.id, t.wallet_id, t.type, t.status, t.amount, t.order_id, t.description, t.created_at
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1` + clause + `
		ORDER BY t.created_at DESC
		LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(offsetPos)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list wallet transactions", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []*wallet.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}

	return txns, nil
}

// CountByUserID counts ledger entries matching the filter for pagination
func (r *WalletTransactionRepository) CountByUserID(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter) (int64, error) {
	args := []interface{}{userID}
	clause, args := transactionFilterClause(filter, args)

	query := `
		SELECT COUNT(*)
		FROM wallet_transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1` + clause

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count wallet transactions", "user_id", userID.String(), "error", err)
		return 0, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	return count, nil
}

// RecentByWalletID retrieves the most recent ledger entries for a wallet
func (r *WalletTransactionRepository) RecentByWalletID(ctx context.Context, walletID uuid.UUID, limit int) ([]*wallet.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, walletID, limit)
	if err != nil {
		r.logger.Error("Failed to list recent wallet transactions", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list recent wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []*wallet.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}

	return txns, nil
}
