package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SearchFilter narrows product listings. Only published products are listed.
type SearchFilter struct {
	Search     *string
	CategoryID *int64
	BrandID    *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// Repository defines product persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, filter SearchFilter, limit, offset int) ([]*Product, error)
	Count(ctx context.Context, filter SearchFilter) (int64, error)
	ListPublished(ctx context.Context) ([]*Product, error)

	// DecrementStock atomically moves qty units from stock to sales, failing
	// with ErrOutOfStock when fewer than qty units remain. The check and the
	// decrement are one statement so concurrent orders cannot interleave
	// between them.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// Restock adds qty units back to stock (admin correction / cancel flows)
	Restock(ctx context.Context, id uuid.UUID, qty int) error

	WithTx(tx pgx.Tx) Repository
}

// VariantRepository defines variant persistence operations
type VariantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	Create(ctx context.Context, v *Variant) error
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]*Variant, error)
	AddImage(ctx context.Context, img *Image) error
	DeleteImage(ctx context.Context, imageID int64) (*Image, error)
	WithTx(tx pgx.Tx) VariantRepository
}

// ErrProductNotFound indicates a missing product
type ErrProductNotFound struct {
	ProductID uuid.UUID
}

func (e ErrProductNotFound) Error() string {
	return "product not found: " + e.ProductID.String()
}

// Is implements errors.Is; a target with a nil ID matches any instance
func (e ErrProductNotFound) Is(target error) bool {
	t, ok := target.(ErrProductNotFound)
	if !ok {
		return false
	}
	return t.ProductID == uuid.Nil || e.ProductID == t.ProductID
}

// ErrVariantNotFound indicates a missing product variant
type ErrVariantNotFound struct {
	VariantID uuid.UUID
}

func (e ErrVariantNotFound) Error() string {
	return "product variant not found: " + e.VariantID.String()
}

func (e ErrVariantNotFound) Is(target error) bool {
	t, ok := target.(ErrVariantNotFound)
	if !ok {
		return false
	}
	return t.VariantID == uuid.Nil || e.VariantID == t.VariantID
}

// ErrOutOfStock indicates the ordered quantity exceeds the remaining stock
type ErrOutOfStock struct {
	ProductID uuid.UUID
}

func (e ErrOutOfStock) Error() string {
	return "insufficient stock for product: " + e.ProductID.String()
}

func (e ErrOutOfStock) Is(target error) bool {
	t, ok := target.(ErrOutOfStock)
	if !ok {
		return false
	}
	return t.ProductID == uuid.Nil || e.ProductID == t.ProductID
}
