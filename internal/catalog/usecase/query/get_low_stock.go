package query

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type GetLowStockQuery struct {
	// Threshold <= 0 means domain.LowStockThreshold
	Threshold int
}

type GetLowStockHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	store      *cache.Store
}

func NewGetLowStockHandler(products domain.ProductRepository, categories domain.CategoryRepository, store *cache.Store) *GetLowStockHandler {
	return &GetLowStockHandler{products: products, categories: categories, store: store}
}

func (h *GetLowStockHandler) Handle(ctx context.Context, query GetLowStockQuery) ([]dto.ProductDTO, error) {
	threshold := query.Threshold
	if threshold <= 0 {
		threshold = domain.LowStockThreshold
	}

	key := cache.LowStockKey(threshold)
	var cached []dto.ProductDTO
	if h.store.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := h.products.GetLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}

	result, err := toProductDTOs(ctx, h.categories, products)
	if err != nil {
		return nil, err
	}

	h.store.SetList(ctx, key, result)
	return result, nil
}
