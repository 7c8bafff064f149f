package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// VariantRepository implements the product.VariantRepository interface for PostgreSQL
type VariantRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewVariantRepository creates a new PostgreSQL variant repository
func NewVariantRepository(logger *slog.Logger, db *persistence.PostgresDB) product.VariantRepository {
	return &VariantRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *VariantRepository) WithTx(tx pgx.Tx) product.VariantRepository {
	return &VariantRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a variant by its ID. Attributes are stored as JSONB.
func (r *VariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Variant, error) {
	query := `
		SELECT id, product_id, sku, price, attributes, created_at
		FROM product_variants
		WHERE id = $1
	`

	var v product.Variant
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.ProductID,
		&v.SKU,
		&v.Price,
		&v.Attributes,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrVariantNotFound{VariantID: id}
		}
		r.logger.Error("Failed to get variant", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}

	return &v, nil
}

// Create stores a new variant
func (r *VariantRepository) Create(ctx context.Context, v *product.Variant) error {
	query := `
		INSERT INTO product_variants (id, product_id, sku, price, attributes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		v.ID,
		v.ProductID,
		v.SKU,
		v.Price,
		v.Attributes,
		v.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create variant", "product_id", v.ProductID.String(), "error", err)
		return fmt.Errorf("failed to create variant: %w", err)
	}

	return nil
}

// ListByProductID retrieves all variants of a product
func (r *VariantRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]*product.Variant, error) {
	query := `
		SELECT id, product_id, sku, price, attributes, created_at
		FROM product_variants
		WHERE product_id = $1
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list variants", "product_id", productID.String(), "error", err)
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	var variants []*product.Variant
	for rows.Next() {
		var v product.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Attributes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variants: %w", err)
	}

	return variants, nil
}

// AddImage stores an image record for a variant, assigning the generated ID
func (r *VariantRepository) AddImage(ctx context.Context, img *product.Image) error {
	query := `
		INSERT INTO variant_images (product_variant_id, image_url, public_id, is_thumbnail)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		img.VariantID,
		img.URL,
		img.PublicID,
		img.IsThumbnail,
	).Scan(&img.ID)
	if err != nil {
		r.logger.Error("Failed to add variant image", "variant_id", img.VariantID.String(), "error", err)
		return fmt.Errorf("failed to add variant image: %w", err)
	}

	return nil
}

// DeleteImage removes an image record and returns it so the caller can drop
// the stored blob
func (r *VariantRepository) DeleteImage(ctx context.Context, imageID int64) (*product.Image, error) {
	query := `
		DELETE FROM variant_images
		WHERE id = $1
		RETURNING id, product_variant_id, image_url, public_id, is_thumbnail
	`

	var img product.Image
	err := r.querier.QueryRow(ctx, query, imageID).Scan(
		&img.ID,
		&img.VariantID,
		&img.URL,
		&img.PublicID,
		&img.IsThumbnail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variant image not found: %d", imageID)
		}
		r.logger.Error("Failed to delete variant image", "id", imageID, "error", err)
		return nil, fmt.Errorf("failed to delete variant image: %w", err)
	}

	return &img, nil
}
