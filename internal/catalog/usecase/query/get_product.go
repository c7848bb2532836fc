package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

// GetProductQuery represents the query to get a product by ID
type GetProductQuery struct {
	ID string
}

// GetProductHandler handles get product query
type GetProductHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	store      *cache.Store
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(products domain.ProductRepository, categories domain.CategoryRepository, store *cache.Store) *GetProductHandler {
	return &GetProductHandler{products: products, categories: categories, store: store}
}

// Handle returns the product or nil when it does not exist
func (h *GetProductHandler) Handle(ctx context.Context, query GetProductQuery) (*dto.ProductDTO, error) {
	if query.ID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}

	key := cache.ProductKey(query.ID)
	var cached dto.ProductDTO
	if h.store.Get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := h.products.GetByID(ctx, query.ID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug(ctx).Str("product_id", query.ID).Msg("Product not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	name, err := categoryName(ctx, h.categories, product.CategoryID)
	if err != nil {
		return nil, err
	}

	result := dto.FromProduct(product, name)
	h.store.SetItem(ctx, key, result)
	return &result, nil
}
