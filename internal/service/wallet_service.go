package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/account"
	"github.com/nos-commerce-backend/internal/domain/audit"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/notification"
	"github.com/nos-commerce-backend/internal/platform/cache"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	pinLength         = 4
	recentTxnsLimit   = 5
	transactionsScope = "transactions"
)

// TransactionPage is one page of ledger entries with the total match count
type TransactionPage struct {
	Items []*wallet.Transaction `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

// WalletService implements the stored-value wallet operations: activation,
// deposits, withdrawals and the cached read paths
type WalletService struct {
	txRunner    TxRunner
	wallets     wallet.Repository
	txns        wallet.TransactionRepository
	accounts    account.Repository
	events      audit.Repository
	cache       cache.Cache
	invalidator *Invalidator
	dispatcher  *notification.Dispatcher
	walletTTL   time.Duration
	queryTTL    time.Duration
	logger      *slog.Logger
}

func NewWalletService(
	txRunner TxRunner,
	wallets wallet.Repository,
	txns wallet.TransactionRepository,
	accounts account.Repository,
	events audit.Repository,
	c cache.Cache,
	invalidator *Invalidator,
	dispatcher *notification.Dispatcher,
	walletTTL, queryTTL time.Duration,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		txRunner:    txRunner,
		wallets:     wallets,
		txns:        txns,
		accounts:    accounts,
		events:      events,
		cache:       c,
		invalidator: invalidator,
		dispatcher:  dispatcher,
		walletTTL:   walletTTL,
		queryTTL:    queryTTL,
		logger:      logger,
	}
}

// GetWallet returns the user's wallet, serving from cache when possible
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	key := cache.ValueKey(walletKeyPrefix, userID.String())

	if data, err := s.cache.GetValue(ctx, key); err == nil {
		var w wallet.Wallet
		if err := json.Unmarshal(data, &w); err == nil {
			return &w, nil
		}
		s.logger.Warn("Failed to decode cached wallet, falling back to store", "user_id", userID.String())
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(w); err == nil {
		if err := s.cache.SetValue(ctx, key, data, s.walletTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return w, nil
}

// Activate sets the wallet PIN, enabling debits. The PIN is stored only as a
// bcrypt hash and cannot be set twice.
func (s *WalletService) Activate(ctx context.Context, userID uuid.UUID, pin, confirmation string) error {
	if len(pin) != pinLength {
		return wallet.ErrInvalidPin
	}
	if _, err := strconv.Atoi(pin); err != nil {
		return wallet.ErrInvalidPin
	}
	if pin != confirmation {
		return wallet.ErrPinMismatch
	}

	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if w.PinSet() {
		return wallet.ErrAlreadyActivated
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash wallet pin: %w", err)
	}

	if err := s.wallets.SetPin(ctx, w.ID, string(hash)); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationWallet, userID.String())
	s.recordEvent(userID, &w.ID, audit.KindWalletActivated, nil)

	return nil
}

// ValidatePin checks the PIN against the stored hash
func (s *WalletService) ValidatePin(ctx context.Context, userID uuid.UUID, pin string) error {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !w.PinSet() {
		return wallet.ErrNotActivated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*w.PinHash), []byte(pin)); err != nil {
		return wallet.ErrInvalidPin
	}
	return nil
}

// Deposit credits the wallet. The ledger entry and the balance change commit
// in the same store transaction.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*wallet.Transaction, error) {
	if !amount.IsPositive() {
		return nil, wallet.ErrInvalidAmount
	}

	var txn *wallet.Transaction
	var walletID uuid.UUID
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		w, err := s.wallets.WithTx(tx).LockByUserID(ctx, userID)
		if err != nil {
			return err
		}
		walletID = w.ID

		txn, err = wallet.NewTransaction(w.ID, wallet.TransactionTypeDeposit, wallet.TransactionStatusCompleted, amount, nil, description)
		if err != nil {
			return err
		}
		if err := s.txns.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		return s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, w.ID, txn.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationLedger, userID.String())
	s.recordEvent(userID, &walletID, audit.KindWalletDeposit, map[string]any{"amount": amount.String()})
	s.notifyTransaction(ctx, userID, txn)

	return txn, nil
}

// Withdraw debits the wallet after PIN verification. The balance check runs
// under the row lock, so concurrent debits cannot overdraw.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, pin string) (*wallet.Transaction, error) {
	if !amount.IsPositive() {
		return nil, wallet.ErrInvalidAmount
	}
	if err := s.ValidatePin(ctx, userID, pin); err != nil {
		return nil, err
	}

	var txn *wallet.Transaction
	var walletID uuid.UUID
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		w, err := s.wallets.WithTx(tx).LockByUserID(ctx, userID)
		if err != nil {
			return err
		}
		walletID = w.ID

		if !w.CanDebit(amount) {
			return wallet.ErrInsufficientFunds
		}

		txn, err = wallet.NewTransaction(w.ID, wallet.TransactionTypeWithdrawal, wallet.TransactionStatusCompleted, amount, nil, "Wallet withdrawal")
		if err != nil {
			return err
		}
		if err := s.txns.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		return s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, w.ID, txn.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationLedger, userID.String())
	s.recordEvent(userID, &walletID, audit.KindWalletWithdrawal, map[string]any{"amount": amount.String()})
	s.notifyTransaction(ctx, userID, txn)

	return txn, nil
}

// GetTransactions lists ledger entries with filtering and pagination, caching
// each result page under a parameter-hashed key
func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, filter wallet.TransactionFilter, page shared.PageRequest) (*TransactionPage, error) {
	page = page.Normalize()
	key := cache.DerivedQueryKey(walletTxnsPrefix+":"+userID.String(), transactionFilterParams(filter, page)...)

	if data, err := s.cache.GetValue(ctx, key); err == nil {
		var cached TransactionPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	items, err := s.txns.ListByUserID(ctx, userID, filter, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.txns.CountByUserID(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := &TransactionPage{Items: items, Total: total, Page: page.Page, Size: page.Size}
	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.SetValue(ctx, key, data, s.queryTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// RecentTransactions returns the newest ledger entries for the dashboard view
func (s *WalletService) RecentTransactions(ctx context.Context, userID uuid.UUID) ([]*wallet.Transaction, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.txns.RecentByWalletID(ctx, w.ID, recentTxnsLimit)
}

func transactionFilterParams(filter wallet.TransactionFilter, page shared.PageRequest) []string {
	params := []string{transactionsScope, strconv.Itoa(page.Page), strconv.Itoa(page.Size), page.Sort}
	if filter.Type != nil {
		params = append(params, "type="+string(*filter.Type))
	}
	if filter.Status != nil {
		params = append(params, "status="+string(*filter.Status))
	}
	if filter.FromDate != nil {
		params = append(params, "from="+filter.FromDate.Format(time.RFC3339))
	}
	if filter.ToDate != nil {
		params = append(params, "to="+filter.ToDate.Format(time.RFC3339))
	}
	return params
}

// recordEvent appends to the audit trail on a detached context; the write is
// best-effort and the mutation it describes has already committed
func (s *WalletService) recordEvent(userID uuid.UUID, walletID *uuid.UUID, kind audit.Kind, payload map[string]any) {
	e := audit.NewEvent(kind, userID)
	e.WalletID = walletID
	e.Payload = payload

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.Record(ctx, e); err != nil {
		s.logger.Warn("Failed to record audit event", "kind", string(kind), "error", err)
	}
}

func (s *WalletService) notifyTransaction(ctx context.Context, userID uuid.UUID, txn *wallet.Transaction) {
	acc, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to resolve account for notification", "user_id", userID.String(), "error", err)
		return
	}
	s.dispatcher.Send(shared.EmailMessage{
		Recipient: acc.Email,
		Kind:      shared.EmailTransactionNotification,
		Data: map[string]any{
			"full_name": acc.FullName,
			"type":      string(txn.Type),
			"amount":    txn.Amount.String(),
		},
	})
}
