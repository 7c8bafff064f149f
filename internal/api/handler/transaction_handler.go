package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/service"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles the administrative ledger endpoints
type TransactionHandler struct {
	txns   *service.TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a new ledger administration handler
func NewTransactionHandler(logger *slog.Logger, txns *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		txns:   txns,
		logger: logger,
	}
}

// Create appends a manual ledger entry
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	walletID, _ := uuid.Parse(req.WalletID)
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}
	var orderID *uuid.UUID
	if req.OrderID != nil {
		parsed, err := uuid.Parse(*req.OrderID)
		if err != nil {
			RespondBadRequest(c, "Invalid order ID")
			return
		}
		orderID = &parsed
	}

	txn, err := h.txns.Create(c.Request.Context(), walletID,
		wallet.TransactionType(req.Type), wallet.TransactionStatus(req.Status),
		amount, orderID, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondCreated(c, txn)
}

// GetByID retrieves a single ledger entry
func (h *TransactionHandler) GetByID(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.txns.GetByID(c.Request.Context(), txnID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondOK(c, txn)
}

// UpdateStatus corrects the status of a ledger entry
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, err := h.txns.UpdateStatus(c.Request.Context(), txnID, wallet.TransactionStatus(req.Status), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondOK(c, txn)
}

// Delete removes a ledger entry, reversing any settled amount first
func (h *TransactionHandler) Delete(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	if err := h.txns.Delete(c.Request.Context(), txnID); err != nil {
		h.respondError(c, err)
		return
	}

	RespondNoContent(c)
}

// ListByUser lists a user's ledger entries
func (h *TransactionHandler) ListByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

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

	page, err := h.txns.ListByUserID(c.Request.Context(), userID, filter, shared.PageRequest{Page: params.Page, Size: params.PerPage, Sort: params.Sort})
	if err != nil {
		h.logger.Error("Failed to list transactions", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, 200, page.Items, page.Page, page.Size, int(page.Total))
}

func (h *TransactionHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, wallet.ErrTransactionNotFound{}):
		RespondNotFound(c, "Transaction not found")
	case errors.Is(err, wallet.ErrWalletNotFound{}):
		RespondNotFound(c, "Wallet not found")
	case errors.Is(err, wallet.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Correction would overdraw the wallet")
	default:
		h.logger.Error("Ledger operation failed", "error", err)
		RespondInternalError(c)
	}
}
