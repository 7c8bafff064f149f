package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/service"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	products *service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(logger *slog.Logger, products *service.ProductService) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// GetByID retrieves a product
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondOK(c, p)
}

// ListAll lists every published product
func (h *ProductHandler) ListAll(c *gin.Context) {
	products, err := h.products.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list products", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, products)
}

// Search lists published products matching the query filters
func (h *ProductHandler) Search(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	filter, err := parseProductFilter(c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	page, err := h.products.Search(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to search products", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, 200, page.Items, page.Page, page.Size, int(page.Total))
}

// Create stores a new catalog entry (admin only)
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p := &product.Product{
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		BrandID:         req.BrandID,
		QuantityInStock: req.QuantityInStock,
		IsPublished:     req.IsPublished,
	}
	if err := h.products.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("Failed to create product", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, p)
}

// Update changes catalog fields of a product (admin only)
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p := &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		IsPublished: req.IsPublished,
	}
	if err := h.products.Update(c.Request.Context(), p); err != nil {
		h.respondError(c, err)
		return
	}

	RespondOK(c, p)
}

// CreateVariant adds a sellable configuration to a product (admin only)
func (h *ProductHandler) CreateVariant(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	var req CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		RespondBadRequest(c, "Invalid price")
		return
	}

	v := &product.Variant{
		ProductID:  productID,
		SKU:        req.SKU,
		Price:      price,
		Attributes: req.Attributes,
	}
	if err := h.products.CreateVariant(c.Request.Context(), v); err != nil {
		h.respondError(c, err)
		return
	}

	RespondCreated(c, v)
}

// ListVariants lists the variants of a product
func (h *ProductHandler) ListVariants(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	variants, err := h.products.GetVariants(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondOK(c, variants)
}

// AddImage uploads a picture for a variant (admin only)
func (h *ProductHandler) AddImage(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		RespondBadRequest(c, "Invalid variant ID")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		RespondBadRequest(c, "Missing image file")
		return
	}
	defer file.Close()

	isThumbnail := c.PostForm("is_thumbnail") == "true"

	img, err := h.products.AddImage(c.Request.Context(), variantID, file, header.Filename, isThumbnail)
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondCreated(c, img)
}

// DeleteImage removes a variant picture (admin only)
func (h *ProductHandler) DeleteImage(c *gin.Context) {
	imageID, err := strconv.ParseInt(c.Param("imageId"), 10, 64)
	if err != nil {
		RespondBadRequest(c, "Invalid image ID")
		return
	}

	if err := h.products.DeleteImage(c.Request.Context(), imageID); err != nil {
		h.logger.Error("Failed to delete image", "id", imageID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

func (h *ProductHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrProductNotFound{}):
		RespondNotFound(c, "Product not found")
	case errors.Is(err, product.ErrVariantNotFound{}):
		RespondNotFound(c, "Product variant not found")
	default:
		h.logger.Error("Catalog operation failed", "error", err)
		RespondInternalError(c)
	}
}

// parseProductFilter reads the optional catalog filters from the query string
func parseProductFilter(c *gin.Context) (product.SearchFilter, error) {
	var filter product.SearchFilter
	if v := c.Query("q"); v != "" {
		filter.Search = &v
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid category ID")
		}
		filter.CategoryID = &id
	}
	if v := c.Query("brand_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid brand ID")
		}
		filter.BrandID = &id
	}
	if v := c.Query("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errors.New("invalid min price")
		}
		filter.MinPrice = &d
	}
	if v := c.Query("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errors.New("invalid max price")
		}
		filter.MaxPrice = &d
	}
	return filter, nil
}
