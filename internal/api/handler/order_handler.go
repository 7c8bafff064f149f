package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/api/middleware"
	"github.com/nos-commerce-backend/internal/domain/account"
	"github.com/nos-commerce-backend/internal/domain/order"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/service"
)

// OrderHandler handles HTTP requests for the order pipeline
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(logger *slog.Logger, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// Create turns the caller's cart into an order
func (h *OrderHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		RespondBadRequest(c, "Invalid address ID")
		return
	}
	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		RespondBadRequest(c, "Invalid payment method ID")
		return
	}

	view, err := h.orders.Create(c.Request.Context(), userID, addressID, paymentMethodID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			RespondBadRequest(c, "Cart is empty")
		case errors.Is(err, account.ErrAddressNotFound{}):
			RespondNotFound(c, "Address not found")
		case errors.Is(err, account.ErrPaymentMethodNotFound{}):
			RespondNotFound(c, "Payment method not found")
		case errors.Is(err, product.ErrOutOfStock{}):
			RespondUnprocessable(c, "OUT_OF_STOCK", "Not enough stock for one of the items")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Wallet balance does not cover the order total")
		default:
			h.logger.Error("Failed to create order", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, view)
}

// GetByID retrieves an order with its lines
func (h *OrderHandler) GetByID(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	isAdmin := c.GetBool(middleware.IsAdminKey)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	view, err := h.orders.Get(c.Request.Context(), userID, isAdmin, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			RespondNotFound(c, "Order not found")
			return
		}
		h.logger.Error("Failed to get order", "id", orderID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, view)
}

// ListMine lists the caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	h.list(c, order.SearchFilter{UserID: &userID})
}

// ListAll lists all orders (admin only)
func (h *OrderHandler) ListAll(c *gin.Context) {
	var filter order.SearchFilter
	if s := c.Query("status"); s != "" {
		status := order.Status(s)
		filter.Status = &status
	}
	h.list(c, filter)
}

func (h *OrderHandler) list(c *gin.Context, filter order.SearchFilter) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	page, err := h.orders.List(c.Request.Context(), filter, shared.PageRequest{Page: params.Page, Size: params.PerPage, Sort: params.Sort})
	if err != nil {
		h.logger.Error("Failed to list orders", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, 200, page.Items, page.Page, page.Size, int(page.Total))
}

// Accept moves a PENDING order to PROCESSING (admin only)
func (h *OrderHandler) Accept(c *gin.Context) {
	h.simpleTransition(c, h.orders.Accept)
}

// Deliver moves a SHIPPED order to DELIVERED (admin only)
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.simpleTransition(c, h.orders.Deliver)
}

// Cancel aborts an order, restoring stock and refunding a wallet payment.
// Customers can only cancel their own orders; admins can cancel any.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	isAdmin := c.GetBool(middleware.IsAdminKey)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	// The reason body is optional
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	o, err := h.orders.Cancel(c.Request.Context(), userID, isAdmin, orderID, req.Reason)
	if err != nil {
		h.respondTransitionError(c, orderID, err)
		return
	}

	RespondOK(c, o)
}

// Ship moves a PROCESSING order to SHIPPED with tracking info (admin only)
func (h *OrderHandler) Ship(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var eta *time.Time
	if req.EstimatedDeliveryDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.EstimatedDeliveryDate)
		if err != nil {
			RespondBadRequest(c, "Invalid estimated delivery date")
			return
		}
		eta = &parsed
	}

	o, err := h.orders.Ship(c.Request.Context(), orderID, req.TrackingNumber, eta)
	if err != nil {
		h.respondTransitionError(c, orderID, err)
		return
	}

	RespondOK(c, o)
}

// UpdateLocation records the courier position of a SHIPPED order. The order's
// owner and admins may call it.
func (h *OrderHandler) UpdateLocation(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	isAdmin := c.GetBool(middleware.IsAdminKey)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.orders.UpdateLocation(c.Request.Context(), userID, isAdmin, orderID, *req.Latitude, *req.Longitude); err != nil {
		h.respondTransitionError(c, orderID, err)
		return
	}

	RespondNoContent(c)
}

// History lists the audit trail of an order (admin only)
func (h *OrderHandler) History(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, err := h.orders.History(c.Request.Context(), orderID, shared.PageRequest{Page: params.Page, Size: params.PerPage})
	if err != nil {
		h.logger.Error("Failed to list order history", "id", orderID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, events)
}

func (h *OrderHandler) simpleTransition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*order.Order, error)) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid order ID")
		return
	}

	o, err := op(c.Request.Context(), orderID)
	if err != nil {
		h.respondTransitionError(c, orderID, err)
		return
	}

	RespondOK(c, o)
}

func (h *OrderHandler) respondTransitionError(c *gin.Context, orderID uuid.UUID, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound{}):
		RespondNotFound(c, "Order not found")
	case errors.Is(err, order.ErrInvalidTransition{}):
		RespondConflict(c, err.Error())
	default:
		h.logger.Error("Order operation failed", "id", orderID.String(), "error", err)
		RespondInternalError(c)
	}
}
