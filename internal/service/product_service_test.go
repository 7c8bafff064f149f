package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/platform/blob"
	"github.com/nos-commerce-backend/internal/platform/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingBlobStore captures the operations performed against the object
// store, in order
type recordingBlobStore struct {
	ops       []string
	uploadErr error
	deleteErr error
}

func (s *recordingBlobStore) Upload(_ context.Context, _ io.Reader, filename string) (*blob.UploadResult, error) {
	s.ops = append(s.ops, "upload:"+filename)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &blob.UploadResult{URL: "https://img.test/" + filename, PublicID: "test/" + filename}, nil
}

func (s *recordingBlobStore) Replace(_ context.Context, publicID string, _ io.Reader, _ string) (*blob.UploadResult, error) {
	s.ops = append(s.ops, "replace:"+publicID)
	return &blob.UploadResult{URL: "about:blank", PublicID: publicID}, nil
}

func (s *recordingBlobStore) Delete(_ context.Context, publicID string) error {
	s.ops = append(s.ops, "delete:"+publicID)
	return s.deleteErr
}

func newProductServiceForTest(t *testing.T) (*ProductService, *MockProductRepository, *MockVariantRepository, *recordingBlobStore, *cache.MemoryCache) {
	t.Helper()
	products := new(MockProductRepository)
	variants := new(MockVariantRepository)
	blobs := &recordingBlobStore{}
	invalidator, mem := testInvalidator()

	svc := NewProductService(products, variants, blobs, mem, invalidator, time.Minute, testLogger())
	return svc, products, variants, blobs, mem
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("StoreMissFillsHash", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)
		p := &product.Product{ID: productID, Name: "Shoe", QuantityInStock: 5, IsPublished: true}

		products.On("GetByID", ctx, productID).Return(p, nil).Once()

		first, err := svc.GetByID(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, "Shoe", first.Name)

		// The Once expectation proves the second read is served from the hash
		second, err := svc.GetByID(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		products.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)

		products.On("GetByID", ctx, productID).Return(nil, product.ErrProductNotFound{ProductID: productID}).Once()

		_, err := svc.GetByID(ctx, productID)
		assert.ErrorIs(t, err, product.ErrProductNotFound{})
	})
}

func TestProductService_ListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondListingServedFromCache", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)
		stored := []*product.Product{
			{ID: uuid.New(), Name: "A", IsPublished: true},
			{ID: uuid.New(), Name: "B", IsPublished: true},
		}

		products.On("ListPublished", ctx).Return(stored, nil).Once()

		first, err := svc.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, second, 2)
		products.AssertExpectations(t)
	})

	t.Run("PartialHashCountsAsFullMiss", func(t *testing.T) {
		svc, products, _, _, mem := newProductServiceForTest(t)
		id1 := uuid.New()
		id2 := uuid.New()

		// Two members in the set but only one entry in the hash: the set no
		// longer proves coverage, so the store must be hit
		require.NoError(t, mem.AddToSet(ctx, cache.IDSetKey(productEntityType), id1.String(), id2.String()))
		require.NoError(t, mem.PutHashField(ctx, cache.EntityHashKey(productEntityType), id1.String(), []byte(`{"id":"`+id1.String()+`"}`)))

		stored := []*product.Product{{ID: id1, IsPublished: true}, {ID: id2, IsPublished: true}}
		products.On("ListPublished", ctx).Return(stored, nil).Once()

		got, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		products.AssertExpectations(t)
	})

	t.Run("EmptySetHitsStore", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)

		products.On("ListPublished", ctx).Return([]*product.Product{}, nil).Once()

		got, err := svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestProductService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondReadServedFromCache", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)
		q := "shoe"
		filter := product.SearchFilter{Search: &q}
		stored := []*product.Product{{ID: uuid.New(), Name: "Shoe", IsPublished: true}}

		products.On("List", ctx, filter, 20, 0).Return(stored, nil).Once()
		products.On("Count", ctx, filter).Return(int64(1), nil).Once()

		first, err := svc.Search(ctx, filter, 0, 20)
		require.NoError(t, err)
		require.Len(t, first.Items, 1)

		second, err := svc.Search(ctx, filter, 0, 20)
		require.NoError(t, err)
		assert.Equal(t, first.Total, second.Total)
		products.AssertExpectations(t)
	})

	t.Run("DistinctFiltersUseDistinctKeys", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)
		min := decimal.RequireFromString("10.00")
		cheap := product.SearchFilter{}
		pricey := product.SearchFilter{MinPrice: &min}

		products.On("List", ctx, cheap, 20, 0).Return([]*product.Product{}, nil).Once()
		products.On("Count", ctx, cheap).Return(int64(0), nil).Once()
		products.On("List", ctx, pricey, 20, 0).Return([]*product.Product{}, nil).Once()
		products.On("Count", ctx, pricey).Return(int64(0), nil).Once()

		_, err := svc.Search(ctx, cheap, 0, 20)
		require.NoError(t, err)
		_, err = svc.Search(ctx, pricey, 0, 20)
		require.NoError(t, err)
		products.AssertExpectations(t)
	})

	t.Run("NormalizesPageBounds", func(t *testing.T) {
		svc, products, _, _, _ := newProductServiceForTest(t)
		filter := product.SearchFilter{}

		products.On("List", ctx, filter, 20, 0).Return([]*product.Product{}, nil).Once()
		products.On("Count", ctx, filter).Return(int64(0), nil).Once()

		got, err := svc.Search(ctx, filter, -3, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Page)
		assert.Equal(t, 20, got.Size)
	})
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	svc, products, _, _, mem := newProductServiceForTest(t)

	// A stale listing should not survive a catalog write
	require.NoError(t, mem.AddToSet(ctx, cache.IDSetKey(productEntityType), "stale"))

	products.On("Create", ctx, mock.AnythingOfType("*product.Product")).Return(nil).Once()

	p := &product.Product{Name: "New", IsPublished: true}
	require.NoError(t, svc.Create(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	members, err := mem.SetMembers(ctx, cache.IDSetKey(productEntityType))
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	svc, products, _, _, mem := newProductServiceForTest(t)
	productID := uuid.New()

	require.NoError(t, mem.PutHashField(ctx, cache.EntityHashKey(productEntityType), productID.String(), []byte("stale")))

	products.On("Update", ctx, mock.AnythingOfType("*product.Product")).Return(nil).Once()

	require.NoError(t, svc.Update(ctx, &product.Product{ID: productID, Name: "Renamed"}))

	_, err := mem.GetHashField(ctx, cache.EntityHashKey(productEntityType), productID.String())
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestProductService_CreateVariant(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, products, variants, _, _ := newProductServiceForTest(t)

		products.On("GetByID", ctx, productID).Return(&product.Product{ID: productID}, nil).Once()
		variants.On("Create", ctx, mock.AnythingOfType("*product.Variant")).Return(nil).Once()

		v := &product.Variant{ProductID: productID, SKU: "SKU-9", Price: decimal.RequireFromString("15.00")}
		require.NoError(t, svc.CreateVariant(ctx, v))
		assert.NotEqual(t, uuid.Nil, v.ID)
		variants.AssertExpectations(t)
	})

	t.Run("UnknownProductRejected", func(t *testing.T) {
		svc, products, variants, _, _ := newProductServiceForTest(t)

		products.On("GetByID", ctx, productID).Return(nil, product.ErrProductNotFound{ProductID: productID}).Once()

		err := svc.CreateVariant(ctx, &product.Variant{ProductID: productID, SKU: "SKU-9"})
		assert.ErrorIs(t, err, product.ErrProductNotFound{})
		variants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestProductService_AddImage(t *testing.T) {
	ctx := context.Background()
	variantID := uuid.New()
	productID := uuid.New()
	variant := &product.Variant{ID: variantID, ProductID: productID}

	t.Run("UploadsThenRecords", func(t *testing.T) {
		svc, _, variants, blobs, _ := newProductServiceForTest(t)

		variants.On("GetByID", ctx, variantID).Return(variant, nil).Once()
		variants.On("AddImage", ctx, mock.MatchedBy(func(img *product.Image) bool {
			return img.VariantID == variantID && img.PublicID == "test/front.jpg"
		})).Return(nil).Once()

		img, err := svc.AddImage(ctx, variantID, strings.NewReader("bytes"), "front.jpg", true)
		require.NoError(t, err)
		assert.Equal(t, "https://img.test/front.jpg", img.URL)
		assert.Equal(t, []string{"upload:front.jpg"}, blobs.ops)
		variants.AssertExpectations(t)
	})

	t.Run("UploadFailureSkipsRecord", func(t *testing.T) {
		svc, _, variants, blobs, _ := newProductServiceForTest(t)
		blobs.uploadErr = errors.New("provider down")

		variants.On("GetByID", ctx, variantID).Return(variant, nil).Once()

		_, err := svc.AddImage(ctx, variantID, strings.NewReader("bytes"), "front.jpg", false)
		assert.Error(t, err)
		variants.AssertNotCalled(t, "AddImage", mock.Anything, mock.Anything)
	})

	t.Run("UnknownVariantRejected", func(t *testing.T) {
		svc, _, variants, blobs, _ := newProductServiceForTest(t)

		variants.On("GetByID", ctx, variantID).Return(nil, product.ErrVariantNotFound{VariantID: variantID}).Once()

		_, err := svc.AddImage(ctx, variantID, strings.NewReader("bytes"), "front.jpg", false)
		assert.ErrorIs(t, err, product.ErrVariantNotFound{})
		assert.Empty(t, blobs.ops)
	})
}

func TestProductService_DeleteImage(t *testing.T) {
	ctx := context.Background()
	variantID := uuid.New()
	productID := uuid.New()
	img := &product.Image{ID: 7, VariantID: variantID, PublicID: "test/front.jpg"}

	t.Run("RemovesRecordThenBlob", func(t *testing.T) {
		svc, _, variants, blobs, _ := newProductServiceForTest(t)

		variants.On("DeleteImage", ctx, int64(7)).Return(img, nil).Once()
		variants.On("GetByID", ctx, variantID).Return(&product.Variant{ID: variantID, ProductID: productID}, nil).Once()

		require.NoError(t, svc.DeleteImage(ctx, 7))
		assert.Equal(t, []string{"delete:test/front.jpg"}, blobs.ops)
	})

	t.Run("BlobFailureDoesNotSurface", func(t *testing.T) {
		svc, _, variants, blobs, _ := newProductServiceForTest(t)
		blobs.deleteErr = errors.New("provider down")

		variants.On("DeleteImage", ctx, int64(7)).Return(img, nil).Once()
		variants.On("GetByID", ctx, variantID).Return(&product.Variant{ID: variantID, ProductID: productID}, nil).Once()

		// The record is already gone; the orphaned blob is only logged
		require.NoError(t, svc.DeleteImage(ctx, 7))
	})
}
