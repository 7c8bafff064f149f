package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nos-commerce-backend/internal/api/middleware"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/service"
	"github.com/shopspring/decimal"
)

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	wallets *service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		logger:  logger,
	}
}

// Get returns the caller's wallet
func (h *WalletHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	w, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to get wallet", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, w)
}

// Activate sets the wallet PIN
func (h *WalletHandler) Activate(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req ActivateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.wallets.Activate(c.Request.Context(), userID, req.Pin, req.Confirmation); err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidPin):
			RespondBadRequest(c, "PIN must be exactly 4 digits")
		case errors.Is(err, wallet.ErrPinMismatch):
			RespondBadRequest(c, "PIN confirmation does not match")
		case errors.Is(err, wallet.ErrAlreadyActivated):
			RespondConflict(c, "Wallet is already activated")
		case errors.Is(err, wallet.ErrWalletNotFound{}):
			RespondNotFound(c, "Wallet not found")
		default:
			h.logger.Error("Failed to activate wallet", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondNoContent(c)
}

// ValidatePin checks the caller's PIN without changing anything
func (h *WalletHandler) ValidatePin(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req ValidatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.wallets.ValidatePin(c.Request.Context(), userID, req.Pin); err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidPin):
			RespondUnauthorized(c, "Invalid PIN")
		case errors.Is(err, wallet.ErrNotActivated):
			RespondUnprocessable(c, "WALLET_NOT_ACTIVATED", "Wallet has no PIN set")
		case errors.Is(err, wallet.ErrWalletNotFound{}):
			RespondNotFound(c, "Wallet not found")
		default:
			h.logger.Error("Failed to validate pin", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, gin.H{"valid": true})
}

// Deposit credits the caller's wallet
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	txn, err := h.wallets.Deposit(c.Request.Context(), userID, amount, req.Description)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, txn)
}

// Withdraw debits the caller's wallet after PIN verification
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	txn, err := h.wallets.Withdraw(c.Request.Context(), userID, amount, req.Pin)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidPin) {
			RespondUnauthorized(c, "Invalid PIN")
			return
		}
		h.respondLedgerError(c, err)
		return
	}

	RespondCreated(c, txn)
}

// ListTransactions lists the caller's ledger entries with filters
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	page, err := h.wallets.GetTransactions(c.Request.Context(), userID, filter, shared.PageRequest{Page: params.Page, Size: params.PerPage, Sort: params.Sort})
	if err != nil {
		h.logger.Error("Failed to list wallet transactions", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, 200, page.Items, page.Page, page.Size, int(page.Total))
}

// RecentTransactions returns the newest ledger entries for the dashboard
func (h *WalletHandler) RecentTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	txns, err := h.wallets.RecentTransactions(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to list recent transactions", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, txns)
}

func (h *WalletHandler) respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Wallet balance does not cover the amount")
	case errors.Is(err, wallet.ErrNotActivated):
		RespondUnprocessable(c, "WALLET_NOT_ACTIVATED", "Wallet has no PIN set")
	case errors.Is(err, wallet.ErrWalletNotFound{}):
		RespondNotFound(c, "Wallet not found")
	default:
		h.logger.Error("Wallet operation failed", "error", err)
		RespondInternalError(c)
	}
}

// parseTransactionFilter reads the optional ledger filters from the query string
func parseTransactionFilter(c *gin.Context) (wallet.TransactionFilter, error) {
	var filter wallet.TransactionFilter
	if v := c.Query("type"); v != "" {
		t := wallet.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("status"); v != "" {
		s := wallet.TransactionStatus(v)
		filter.Status = &s
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid from date")
		}
		filter.FromDate = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid to date")
		}
		filter.ToDate = &t
	}
	return filter, nil
}
