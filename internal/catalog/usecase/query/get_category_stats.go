package query

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

// GetCategoryStatsHandler reads all categories and all products once and aggregates in memory
type GetCategoryStatsHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	store      *cache.Store
}

func NewGetCategoryStatsHandler(products domain.ProductRepository, categories domain.CategoryRepository, store *cache.Store) *GetCategoryStatsHandler {
	return &GetCategoryStatsHandler{products: products, categories: categories, store: store}
}

func (h *GetCategoryStatsHandler) Handle(ctx context.Context) ([]dto.CategoryStats, error) {
	var cached []dto.CategoryStats
	if h.store.Get(ctx, cache.CategoryStatsKey, &cached) {
		return cached, nil
	}

	stats, err := h.compute(ctx)
	if err != nil {
		return nil, err
	}

	h.store.SetList(ctx, cache.CategoryStatsKey, stats)
	return stats, nil
}

func (h *GetCategoryStatsHandler) compute(ctx context.Context) ([]dto.CategoryStats, error) {
	categories, err := h.categories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	products, err := h.products.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return buildCategoryStats(categories, products), nil
}
