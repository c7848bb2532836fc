package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type GetCategoryQuery struct {
	ID string
}

type GetCategoryHandler struct {
	categories domain.CategoryRepository
	store      *cache.Store
}

func NewGetCategoryHandler(categories domain.CategoryRepository, store *cache.Store) *GetCategoryHandler {
	return &GetCategoryHandler{categories: categories, store: store}
}

// Handle returns the category with its product count, or nil when it does not exist
func (h *GetCategoryHandler) Handle(ctx context.Context, query GetCategoryQuery) (*dto.CategoryDTO, error) {
	if query.ID == "" {
		return nil, fmt.Errorf("%w: category id is required", domain.ErrValidation)
	}

	key := cache.CategoryKey(query.ID)
	var cached dto.CategoryDTO
	if h.store.Get(ctx, key, &cached) {
		return &cached, nil
	}

	category, err := h.categories.GetByID(ctx, query.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	count, err := h.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	result := dto.FromCategory(category, count)
	h.store.SetItem(ctx, key, result)
	return &result, nil
}
