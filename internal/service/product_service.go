package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/platform/blob"
	"github.com/nos-commerce-backend/internal/platform/cache"
)

// ProductPage is one page of products with the total match count
type ProductPage struct {
	Items []*product.Product `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// ProductService implements the catalog read and write paths. Single reads
// and the list-all path go through the entity hash and id set; filtered
// searches are cached per parameter combination with a TTL.
type ProductService struct {
	products    product.Repository
	variants    product.VariantRepository
	blobs       blob.Store
	cache       cache.Cache
	invalidator *Invalidator
	queryTTL    time.Duration
	logger      *slog.Logger
}

func NewProductService(
	products product.Repository,
	variants product.VariantRepository,
	blobs blob.Store,
	c cache.Cache,
	invalidator *Invalidator,
	queryTTL time.Duration,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:    products,
		variants:    variants,
		blobs:       blobs,
		cache:       c,
		invalidator: invalidator,
		queryTTL:    queryTTL,
		logger:      logger,
	}
}

// GetByID returns a product, served from the entity hash when possible. A
// single-product read fills its own hash field but never touches the id set;
// only a full listing may assert coverage.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	hashKey := cache.EntityHashKey(productEntityType)

	if data, err := s.cache.GetHashField(ctx, hashKey, id.String()); err == nil {
		var p product.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", hashKey, "error", err)
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.PutHashField(ctx, hashKey, id.String(), data); err != nil {
			s.logger.Warn("Cache write failed", "key", hashKey, "error", err)
		}
	}

	return p, nil
}

// ListAll returns every published product. The listing is served from cache
// only when the id set is non-empty and every member hits the entity hash; a
// partial hit counts as a full miss, because a missing member means the set
// no longer proves coverage.
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	hashKey := cache.EntityHashKey(productEntityType)
	setKey := cache.IDSetKey(productEntityType)

	ids, err := s.cache.SetMembers(ctx, setKey)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store", "key", setKey, "error", err)
		ids = nil
	}

	if len(ids) > 0 {
		products := make([]*product.Product, 0, len(ids))
		complete := true
		for _, id := range ids {
			data, err := s.cache.GetHashField(ctx, hashKey, id)
			if err != nil {
				complete = false
				break
			}
			var p product.Product
			if err := json.Unmarshal(data, &p); err != nil {
				complete = false
				break
			}
			products = append(products, &p)
		}
		if complete {
			return products, nil
		}
	}

	products, err := s.products.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	// Repopulate hash and id set so the next listing can be served whole
	memberIDs := make([]string, 0, len(products))
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if err := s.cache.PutHashField(ctx, hashKey, p.ID.String(), data); err != nil {
			s.logger.Warn("Cache write failed", "key", hashKey, "error", err)
			return products, nil
		}
		memberIDs = append(memberIDs, p.ID.String())
	}
	if err := s.cache.AddToSet(ctx, setKey, memberIDs...); err != nil {
		s.logger.Warn("Cache write failed", "key", setKey, "error", err)
	}

	return products, nil
}

// Search returns published products matching the filter, caching each page
// under a parameter-hashed key
func (s *ProductService) Search(ctx context.Context, filter product.SearchFilter, page, size int) (*ProductPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	key := cache.DerivedQueryKey(productSearchPrefix, productFilterParams(filter, page, size)...)

	if data, err := s.cache.GetValue(ctx, key); err == nil {
		var cached ProductPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	items, err := s.products.List(ctx, filter, size, page*size)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ProductPage{Items: items, Total: total, Page: page, Size: size}
	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.SetValue(ctx, key, data, s.queryTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// Create stores a new product
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.products.Create(ctx, p); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationProduct, "", p.ID.String())
	return nil
}

// Update persists catalog field changes and evicts the stale cache entries
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	if err := s.products.Update(ctx, p); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationProduct, "", p.ID.String())
	return nil
}

// CreateVariant adds a sellable configuration to an existing product
func (s *ProductService) CreateVariant(ctx context.Context, v *product.Variant) error {
	if _, err := s.products.GetByID(ctx, v.ProductID); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()

	if err := s.variants.Create(ctx, v); err != nil {
		return err
	}

	s.invalidator.Invalidate(MutationProduct, "", v.ProductID.String())
	return nil
}

// GetVariants lists the variants of a product
func (s *ProductService) GetVariants(ctx context.Context, productID uuid.UUID) ([]*product.Variant, error) {
	return s.variants.ListByProductID(ctx, productID)
}

// AddImage uploads the picture to the blob store, then records it. A failed
// record attempt leaves an orphaned blob, which is acceptable; the reverse
// order could leave an image row pointing nowhere.
func (s *ProductService) AddImage(ctx context.Context, variantID uuid.UUID, r io.Reader, filename string, isThumbnail bool) (*product.Image, error) {
	variant, err := s.variants.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.blobs.Upload(ctx, r, filename)
	if err != nil {
		return nil, err
	}

	img := &product.Image{
		VariantID:   variantID,
		URL:         uploaded.URL,
		PublicID:    uploaded.PublicID,
		IsThumbnail: isThumbnail,
	}
	if err := s.variants.AddImage(ctx, img); err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationProduct, "", variant.ProductID.String())
	return img, nil
}

// DeleteImage removes the image record, then drops the stored blob.
// A blob deletion failure is logged; the record is already gone.
func (s *ProductService) DeleteImage(ctx context.Context, imageID int64) error {
	img, err := s.variants.DeleteImage(ctx, imageID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, img.PublicID); err != nil {
		s.logger.Warn("Failed to delete stored image blob", "public_id", img.PublicID, "error", err)
	}

	variant, err := s.variants.GetByID(ctx, img.VariantID)
	if err == nil {
		s.invalidator.Invalidate(MutationProduct, "", variant.ProductID.String())
	}
	return nil
}

func productFilterParams(filter product.SearchFilter, page, size int) []string {
	params := []string{strconv.Itoa(page), strconv.Itoa(size)}
	if filter.Search != nil {
		params = append(params, "q="+*filter.Search)
	}
	if filter.CategoryID != nil {
		params = append(params, "category="+strconv.FormatInt(*filter.CategoryID, 10))
	}
	if filter.BrandID != nil {
		params = append(params, "brand="+strconv.FormatInt(*filter.BrandID, 10))
	}
	if filter.MinPrice != nil {
		params = append(params, "min="+filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		params = append(params, "max="+filter.MaxPrice.String())
	}
	return params
}
