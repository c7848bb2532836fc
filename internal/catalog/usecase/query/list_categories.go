package query

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type ListCategoriesHandler struct {
	categories domain.CategoryRepository
	store      *cache.Store
}

func NewListCategoriesHandler(categories domain.CategoryRepository, store *cache.Store) *ListCategoriesHandler {
	return &ListCategoriesHandler{categories: categories, store: store}
}

// Handle returns every category with its product count
func (h *ListCategoriesHandler) Handle(ctx context.Context) ([]dto.CategoryDTO, error) {
	var cached []dto.CategoryDTO
	if h.store.Get(ctx, cache.AllCategoriesKey, &cached) {
		return cached, nil
	}

	rows, err := h.categories.GetCategoriesWithProductCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	result := make([]dto.CategoryDTO, 0, len(rows))
	for i := range rows {
		result = append(result, dto.FromCategory(&rows[i].Category, rows[i].ProductCount))
	}

	h.store.SetList(ctx, cache.AllCategoriesKey, result)
	return result, nil
}
