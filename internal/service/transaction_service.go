package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/audit"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// TransactionService implements the administrative ledger operations:
// manual entries, status corrections and removals. Every path keeps the
// invariant that a wallet balance equals the signed sum of its COMPLETED
// entries by moving the two together in one store transaction.
type TransactionService struct {
	txRunner    TxRunner
	wallets     wallet.Repository
	txns        wallet.TransactionRepository
	events      audit.Repository
	invalidator *Invalidator
	logger      *slog.Logger
}

func NewTransactionService(
	txRunner TxRunner,
	wallets wallet.Repository,
	txns wallet.TransactionRepository,
	events audit.Repository,
	invalidator *Invalidator,
	logger *slog.Logger,
) *TransactionService {
	return &TransactionService{
		txRunner:    txRunner,
		wallets:     wallets,
		txns:        txns,
		events:      events,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Create appends a manual ledger entry. A COMPLETED entry settles
// immediately; PENDING and FAILED entries record history without touching
// the balance.
func (s *TransactionService) Create(ctx context.Context, walletID uuid.UUID, txType wallet.TransactionType, status wallet.TransactionStatus, magnitude decimal.Decimal, orderID *uuid.UUID, description string) (*wallet.Transaction, error) {
	var txn *wallet.Transaction
	var ownerID uuid.UUID
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		w, err := s.wallets.WithTx(tx).LockByID(ctx, walletID)
		if err != nil {
			return err
		}
		ownerID = w.UserID

		txn, err = wallet.NewTransaction(walletID, txType, status, magnitude, orderID, description)
		if err != nil {
			return err
		}

		if status == wallet.TransactionStatusCompleted && txn.Amount.IsNegative() && !w.CanDebit(txn.Amount.Neg()) {
			return wallet.ErrInsufficientFunds
		}

		if err := s.txns.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		if status == wallet.TransactionStatusCompleted {
			return s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, walletID, txn.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationLedger, ownerID.String())
	s.recordCorrection(ownerID, walletID, audit.KindLedgerCorrection, map[string]any{
		"transaction_id": txn.ID.String(),
		"action":         "create",
	})

	return txn, nil
}

// UpdateStatus moves a ledger entry to a new status. The balance changes
// exactly when the COMPLETED boundary is crossed: the amount applies on the
// way in and reverses on the way out, so repeating a status never settles
// twice.
func (s *TransactionService) UpdateStatus(ctx context.Context, txnID uuid.UUID, newStatus wallet.TransactionStatus, description *string) (*wallet.Transaction, error) {
	var txn *wallet.Transaction
	var ownerID uuid.UUID
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		txn, err = s.txns.WithTx(tx).GetByID(ctx, txnID)
		if err != nil {
			return err
		}

		w, err := s.wallets.WithTx(tx).LockByID(ctx, txn.WalletID)
		if err != nil {
			return err
		}
		ownerID = w.UserID

		delta := txn.SettlementDelta(txn.Status, newStatus)
		if delta.IsNegative() && !w.CanDebit(delta.Neg()) {
			return wallet.ErrInsufficientFunds
		}

		if err := s.txns.WithTx(tx).UpdateStatus(ctx, txnID, newStatus, description); err != nil {
			return err
		}
		if !delta.IsZero() {
			if err := s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, txn.WalletID, delta); err != nil {
				return err
			}
		}

		txn.Status = newStatus
		if description != nil {
			txn.Description = *description
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationLedger, ownerID.String())
	s.recordCorrection(ownerID, txn.WalletID, audit.KindLedgerCorrection, map[string]any{
		"transaction_id": txnID.String(),
		"action":         "update_status",
		"new_status":     string(newStatus),
	})

	return txn, nil
}

// Delete removes a ledger entry, first reversing its balance contribution if
// it had settled
func (s *TransactionService) Delete(ctx context.Context, txnID uuid.UUID) error {
	var walletID uuid.UUID
	var ownerID uuid.UUID
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txn, err := s.txns.WithTx(tx).GetByID(ctx, txnID)
		if err != nil {
			return err
		}
		walletID = txn.WalletID

		w, err := s.wallets.WithTx(tx).LockByID(ctx, txn.WalletID)
		if err != nil {
			return err
		}
		ownerID = w.UserID

		delta := txn.RemovalDelta()
		if delta.IsNegative() && !w.CanDebit(delta.Neg()) {
			return wallet.ErrInsufficientFunds
		}
		if !delta.IsZero() {
			if err := s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, txn.WalletID, delta); err != nil {
				return err
			}
		}
		return s.txns.WithTx(tx).Delete(ctx, txnID)
	})
	if err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationLedger, ownerID.String())
	s.recordCorrection(ownerID, walletID, audit.KindLedgerEntryDeleted, map[string]any{
		"transaction_id": txnID.String(),
	})

	return nil
}

// GetByID retrieves a single ledger entry
func (s *TransactionService) GetByID(ctx context.Context, txnID uuid.UUID) (*wallet.Transaction, error) {
	return s.txns.GetByID(ctx, txnID)
}

// ListByUserID lists a user's ledger entries for the admin view, uncached
func (s *TransactionService) ListByUserID(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter, page shared.PageRequest) (*TransactionPage, error) {
	page = page.Normalize()

	items, err := s.txns.ListByUserID(ctx, userID, filter, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.txns.CountByUserID(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{Items: items, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *TransactionService) recordCorrection(userID, walletID uuid.UUID, kind audit.Kind, payload map[string]any) {
	e := audit.NewEvent(kind, userID)
	e.WalletID = &walletID
	e.Payload = payload

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.Record(ctx, e); err != nil {
		s.logger.Warn("Failed to record audit event", "kind", string(kind), "error", err)
	}
}
