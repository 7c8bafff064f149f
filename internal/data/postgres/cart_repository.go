package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/cart"
	"github.com/nos-commerce-backend/internal/platform/persistence"
)

// CartRepository implements the cart.Repository interface for PostgreSQL
type CartRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewCartRepository creates a new PostgreSQL cart repository
func NewCartRepository(logger *slog.Logger, db *persistence.PostgresDB) cart.Repository {
	return &CartRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls
func (r *CartRepository) WithTx(tx pgx.Tx) cart.Repository {
	return &CartRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByUserID retrieves the cart owned by the given user
func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	query := `SELECT id, user_id, created_at FROM carts WHERE user_id = $1`

	var c cart.Cart
	err := r.querier.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrCartNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get cart", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &c, nil
}

// Create stores a new cart
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	query := `INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, $3)`

	_, err := r.querier.Exec(ctx, query, c.ID, c.UserID, c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create cart", "user_id", c.UserID.String(), "error", err)
		return fmt.Errorf("failed to create cart: %w", err)
	}

	return nil
}

// ListItems retrieves all lines of a cart
func (r *CartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]*cart.Item, error) {
	query := `
		SELECT cart_id, product_variant_id, quantity, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at
	`

	rows, err := r.querier.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to list cart items", "cart_id", cartID.String(), "error", err)
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	var items []*cart.Item
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.CartID, &it.VariantID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return items, nil
}

// AddItem accumulates quantity onto an existing line or inserts a new one.
// The upsert keeps concurrent adds of the same variant from violating the
// (cart, variant) uniqueness.
func (r *CartRepository) AddItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) error {
	query := `
		INSERT INTO cart_items (cart_id, product_variant_id, quantity, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (cart_id, product_variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.querier.Exec(ctx, query, cartID, variantID, qty)
	if err != nil {
		r.logger.Error("Failed to add cart item", "cart_id", cartID.String(), "error", err)
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// SetItemQuantity replaces the quantity of an existing line
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, qty int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1
		WHERE cart_id = $2 AND product_variant_id = $3
	`

	result, err := r.querier.Exec(ctx, query, qty, cartID, variantID)
	if err != nil {
		r.logger.Error("Failed to update cart item", "cart_id", cartID.String(), "error", err)
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cart.ErrItemNotFound{VariantID: variantID}
	}

	return nil
}

// DeleteItem removes one line from a cart
func (r *CartRepository) DeleteItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_variant_id = $2`

	result, err := r.querier.Exec(ctx, query, cartID, variantID)
	if err != nil {
		r.logger.Error("Failed to delete cart item", "cart_id", cartID.String(), "error", err)
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return cart.ErrItemNotFound{VariantID: variantID}
	}

	return nil
}

// DeleteAllItems drains the cart, e.g. after the items became an order
func (r *CartRepository) DeleteAllItems(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	if _, err := r.querier.Exec(ctx, query, cartID); err != nil {
		r.logger.Error("Failed to clear cart", "cart_id", cartID.String(), "error", err)
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
