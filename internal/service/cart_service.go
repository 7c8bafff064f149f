package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/cart"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/platform/cache"
)

// ErrInvalidQuantity rejects non-positive cart quantities
var ErrInvalidQuantity = errors.New("quantity must be positive")

// CartLine is one cart item joined with its variant for display
type CartLine struct {
	Item    *cart.Item       `json:"item"`
	Variant *product.Variant `json:"variant"`
}

// CartView is the whole cart as the client sees it
type CartView struct {
	Cart  *cart.Cart  `json:"cart"`
	Lines []*CartLine `json:"lines"`
}

// CartService implements the shopping cart operations. The cart is created
// lazily on first read; the whole view is cached per user and evicted on
// every cart write.
type CartService struct {
	carts       cart.Repository
	variants    product.VariantRepository
	cache       cache.Cache
	invalidator *Invalidator
	cartTTL     time.Duration
	logger      *slog.Logger
}

func NewCartService(
	carts cart.Repository,
	variants product.VariantRepository,
	c cache.Cache,
	invalidator *Invalidator,
	cartTTL time.Duration,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:       carts,
		variants:    variants,
		cache:       c,
		invalidator: invalidator,
		cartTTL:     cartTTL,
		logger:      logger,
	}
}

// Get returns the user's cart, creating an empty one on first access and
// serving from cache when possible
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	key := cache.ValueKey(cartKeyPrefix, userID.String())

	if data, err := s.cache.GetValue(ctx, key); err == nil {
		var view CartView
		if err := json.Unmarshal(data, &view); err == nil {
			return &view, nil
		}
		s.logger.Warn("Failed to decode cached cart, falling back to store", "user_id", userID.String())
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	c, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Cart: c, Lines: make([]*CartLine, 0, len(items))}
	for _, item := range items {
		variant, err := s.variants.GetByID(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, &CartLine{Item: item, Variant: variant})
	}

	if data, err := json.Marshal(view); err == nil {
		if err := s.cache.SetValue(ctx, key, data, s.cartTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return view, nil
}

// AddItem puts qty units of a variant in the cart, accumulating onto an
// existing line
func (s *CartService) AddItem(ctx context.Context, userID, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.variants.GetByID(ctx, variantID); err != nil {
		return err
	}

	c, err := s.ensureCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.carts.AddItem(ctx, c.ID, variantID, qty); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationCart, userID.String())
	return nil
}

// UpdateItem replaces the quantity of an existing line. A non-positive
// quantity removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, variantID uuid.UUID, qty int) error {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if qty <= 0 {
		err = s.carts.DeleteItem(ctx, c.ID, variantID)
	} else {
		err = s.carts.SetItemQuantity(ctx, c.ID, variantID, qty)
	}
	if err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationCart, userID.String())
	return nil
}

// RemoveItem deletes one line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) error {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteItem(ctx, c.ID, variantID); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationCart, userID.String())
	return nil
}

// Clear drains the cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound{}) {
			return nil // Nothing to clear
		}
		return err
	}
	if err := s.carts.DeleteAllItems(ctx, c.ID); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationCart, userID.String())
	return nil
}

func (s *CartService) ensureCart(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, cart.ErrCartNotFound{}) {
		return nil, err
	}

	c = &cart.Cart{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
