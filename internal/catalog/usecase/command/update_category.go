package command

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

type UpdateCategoryCommand struct {
	ID          string
	Name        string
	Description string
}

type UpdateCategoryHandler struct {
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func NewUpdateCategoryHandler(categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *UpdateCategoryHandler {
	return &UpdateCategoryHandler{categories: categories, invalidator: invalidator, publisher: publisher}
}

func (h *UpdateCategoryHandler) Handle(ctx context.Context, cmd UpdateCategoryCommand) (*dto.CategoryDTO, error) {
	category, err := h.categories.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	events, err := category.Update(cmd.Name, cmd.Description)
	if err != nil {
		return nil, err
	}

	if err := ensureUniqueName(ctx, h.categories, category.Name, category.ID); err != nil {
		return nil, err
	}

	count, err := h.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := h.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	h.invalidator.CategoryChanged(ctx, category.ID)
	h.publisher.Publish(ctx, events...)

	logger.Info(ctx).Str("category_id", category.ID).Str("name", category.Name).Msg("Category updated")

	result := dto.FromCategory(category, count)
	return &result, nil
}
