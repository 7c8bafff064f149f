package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// ProductRepository implements the product.Repository interface for PostgreSQL
type ProductRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(logger *slog.Logger, db *persistence.PostgresDB) product.Repository {
	return &ProductRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *ProductRepository) WithTx(tx pgx.Tx) product.Repository {
	return &ProductRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const productColumns = `id, category_id, brand_id, name, description, quantity_in_stock,
		quantity_sales, is_published, created_at, updated_at`

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.BrandID,
		&p.Name,
		&p.Description,
		&p.QuantityInStock,
		&p.QuantitySales,
		&p.IsPublished,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a product by its ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrProductNotFound{ProductID: id}
		}
		r.logger.Error("Failed to get product", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// Create stores a new product
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (id, category_id, brand_id, name, description, quantity_in_stock,
			quantity_sales, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.CategoryID,
		p.BrandID,
		p.Name,
		p.Description,
		p.QuantityInStock,
		p.QuantitySales,
		p.IsPublished,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update persists catalog field changes. Stock counters are excluded; they
// only move through DecrementStock and Restock.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	query := `
		UPDATE products
		SET category_id = $1, brand_id = $2, name = $3, description = $4, is_published = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		p.CategoryID,
		p.BrandID,
		p.Name,
		p.Description,
		p.IsPublished,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update product", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return product.ErrProductNotFound{ProductID: p.ID}
	}

	return nil
}

// productFilterClause builds the WHERE fragment shared by listing and counting.
// Price bounds compare against the cheapest variant of each product.
func productFilterClause(filter product.SearchFilter, args []interface{}) (string, []interface{}) {
	clause := "is_published = TRUE"
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		clause += " AND name ILIKE $" + strconv.Itoa(len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clause += " AND category_id = $" + strconv.Itoa(len(args))
	}
	if filter.BrandID != nil {
		args = append(args, *filter.BrandID)
		clause += " AND brand_id = $" + strconv.Itoa(len(args))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clause += ` AND EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = products.id AND v.price >= $` + strconv.Itoa(len(args)) + `)`
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clause += ` AND EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = products.id AND v.price <= $` + strconv.Itoa(len(args)) + `)`
	}
	return clause, args
}

// List retrieves published products matching the filter
func (r *ProductRepository) List(ctx context.Context, filter product.SearchFilter, limit, offset int) ([]*product.Product, error) {
	var args []interface{}
	clause, args := productFilterClause(filter, args)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ` + clause + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(offsetPos)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// Count counts published products matching the filter for pagination
func (r *ProductRepository) Count(ctx context.Context, filter product.SearchFilter) (int64, error) {
	var args []interface{}
	clause, args := productFilterClause(filter, args)

	query := `SELECT COUNT(*) FROM products WHERE ` + clause

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count products", "error", err)
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// ListPublished retrieves every published product
func (r *ProductRepository) ListPublished(ctx context.Context) ([]*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_published = TRUE ORDER BY created_at DESC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list published products", "error", err)
		return nil, fmt.Errorf("failed to list published products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// DecrementStock atomically moves qty units from stock to sales. The
// availability check lives in the WHERE clause, so two orders racing for the
// last units serialize on the row and the loser sees zero rows affected.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock - $1,
			quantity_sales = quantity_sales + $1,
			updated_at = NOW()
		WHERE id = $2 AND quantity_in_stock >= $1
	`

	result, err := r.querier.Exec(ctx, query, qty, id)
	if err != nil {
		r.logger.Error("Failed to decrement stock", "id", id.String(), "error", err)
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the product is gone or the stock does not cover qty;
		// distinguish so callers can report the right failure
		var exists bool
		if err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return product.ErrProductNotFound{ProductID: id}
		}
		return product.ErrOutOfStock{ProductID: id}
	}

	return nil
}

// Restock adds qty units back to stock and backs them out of sales
func (r *ProductRepository) Restock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock + $1,
			quantity_sales = GREATEST(quantity_sales - $1, 0),
			updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, qty, id)
	if err != nil {
		r.logger.Error("Failed to restock product", "id", id.String(), "error", err)
		return fmt.Errorf("failed to restock product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return product.ErrProductNotFound{ProductID: id}
	}

	return nil
}
