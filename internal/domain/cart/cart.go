package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single shopping cart an account owns. Created lazily on first
// read and drained atomically when an order is created from it.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a cart line, keyed by (cart, variant)
type Item struct {
	CartID    uuid.UUID `json:"cart_id"`
	VariantID uuid.UUID `json:"product_variant_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}
