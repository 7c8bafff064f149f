package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/api/middleware"
	"github.com/nos-commerce-backend/internal/domain/cart"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/service"
)

// CartHandler handles HTTP requests for the shopping cart
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(logger *slog.Logger, carts *service.CartService) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// Get returns the caller's cart, creating it on first access
func (h *CartHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get cart", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, view)
}

// AddItem puts a variant in the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	variantID, _ := uuid.Parse(req.VariantID)

	if err := h.carts.AddItem(c.Request.Context(), userID, variantID, req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}

	RespondNoContent(c)
}

// UpdateItem replaces the quantity of a cart line
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		RespondBadRequest(c, "Invalid variant ID")
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.carts.UpdateItem(c.Request.Context(), userID, variantID, req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}

	RespondNoContent(c)
}

// RemoveItem deletes one line from the cart
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		RespondBadRequest(c, "Invalid variant ID")
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), userID, variantID); err != nil {
		h.respondError(c, err)
		return
	}

	RespondNoContent(c)
}

// Clear drains the caller's cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	RespondNoContent(c)
}

func (h *CartHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		RespondBadRequest(c, "Quantity must be positive")
	case errors.Is(err, product.ErrVariantNotFound{}):
		RespondNotFound(c, "Product variant not found")
	case errors.Is(err, cart.ErrCartNotFound{}):
		RespondNotFound(c, "Cart not found")
	case errors.Is(err, cart.ErrItemNotFound{}):
		RespondNotFound(c, "Cart item not found")
	default:
		h.logger.Error("Cart operation failed", "error", err)
		RespondInternalError(c)
	}
}
