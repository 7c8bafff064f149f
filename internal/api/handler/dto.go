package handler

// CreateOrderRequest represents a request to create an order from the cart
type CreateOrderRequest struct {
	AddressID       string `json:"address_id" binding:"required,uuid"`
	PaymentMethodID string `json:"payment_method_id" binding:"required,uuid"`
}

// CancelOrderRequest carries an optional cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ShipOrderRequest represents a request to mark an order shipped
type ShipOrderRequest struct {
	TrackingNumber        string  `json:"tracking_number" binding:"required"`
	EstimatedDeliveryDate *string `json:"estimated_delivery_date,omitempty"` // RFC3339
}

// UpdateLocationRequest represents a courier position update
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ActivateWalletRequest represents a request to set the wallet PIN
type ActivateWalletRequest struct {
	Pin          string `json:"pin" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// DepositRequest represents a wallet deposit
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// WithdrawRequest represents a wallet withdrawal
type WithdrawRequest struct {
	Amount string `json:"amount" binding:"required"`
	Pin    string `json:"pin" binding:"required"`
}

// ValidatePinRequest represents a PIN check
type ValidatePinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// CreateTransactionRequest represents a manual ledger entry (admin only)
type CreateTransactionRequest struct {
	WalletID    string  `json:"wallet_id" binding:"required,uuid"`
	Type        string  `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL PURCHASE REFUND"`
	Status      string  `json:"status" binding:"required,oneof=PENDING COMPLETED FAILED"`
	Amount      string  `json:"amount" binding:"required"`
	OrderID     *string `json:"order_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// UpdateTransactionRequest represents a ledger status correction (admin only)
type UpdateTransactionRequest struct {
	Status      string  `json:"status" binding:"required,oneof=PENDING COMPLETED FAILED"`
	Description *string `json:"description,omitempty"`
}

// AddCartItemRequest represents adding a variant to the cart
type AddCartItemRequest struct {
	VariantID string `json:"product_variant_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest represents replacing a cart line quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// CreateProductRequest represents a new catalog entry (admin only)
type CreateProductRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description,omitempty"`
	CategoryID      *int64 `json:"category_id,omitempty"`
	BrandID         *int64 `json:"brand_id,omitempty"`
	QuantityInStock int    `json:"quantity_in_stock" binding:"min=0"`
	IsPublished     bool   `json:"is_published"`
}

// CreateVariantRequest represents a new sellable configuration (admin only)
type CreateVariantRequest struct {
	SKU        string            `json:"sku" binding:"required"`
	Price      string            `json:"price" binding:"required"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints.
// Page numbering is zero-based.
type PaginationParams struct {
	Page    int    `form:"page,default=0" binding:"min=0"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
	Sort    string `form:"sort"`
}
