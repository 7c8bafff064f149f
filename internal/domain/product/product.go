package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the stock counters the order pipeline mutates.
// QuantityInStock and QuantitySales are non-negative; stock only changes
// through the conditional decrement or a restock, both single statements.
type Product struct {
	ID              uuid.UUID `json:"id"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	BrandID         *int64    `json:"brand_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	QuantityInStock int       `json:"quantity_in_stock"`
	QuantitySales   int       `json:"quantity_sales"`
	IsPublished     bool      `json:"is_published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Variant is a sellable configuration of a product
type Variant struct {
	ID         uuid.UUID         `json:"id"`
	ProductID  uuid.UUID         `json:"product_id"`
	SKU        string            `json:"sku"`
	Price      decimal.Decimal   `json:"price"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Image is a stored picture for a variant, held in the external blob store
type Image struct {
	ID          int64     `json:"id"`
	VariantID   uuid.UUID `json:"product_variant_id"`
	URL         string    `json:"image_url"`
	PublicID    string    `json:"public_id"`
	IsThumbnail bool      `json:"is_thumbnail"`
}
