package query

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type GetAllProductsHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	store      *cache.Store
}

func NewGetAllProductsHandler(products domain.ProductRepository, categories domain.CategoryRepository, store *cache.Store) *GetAllProductsHandler {
	return &GetAllProductsHandler{products: products, categories: categories, store: store}
}

// Handle returns every product, cached as a whole list
func (h *GetAllProductsHandler) Handle(ctx context.Context) ([]dto.ProductDTO, error) {
	var cached []dto.ProductDTO
	if h.store.Get(ctx, cache.AllProductsKey, &cached) {
		return cached, nil
	}

	products, err := h.products.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	result, err := toProductDTOs(ctx, h.categories, products)
	if err != nil {
		return nil, err
	}

	h.store.SetList(ctx, cache.AllProductsKey, result)
	return result, nil
}
