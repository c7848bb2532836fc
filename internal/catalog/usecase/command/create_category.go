package command

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

type CreateCategoryCommand struct {
	Name        string
	Description string
}

type CreateCategoryHandler struct {
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func NewCreateCategoryHandler(categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *CreateCategoryHandler {
	return &CreateCategoryHandler{categories: categories, invalidator: invalidator, publisher: publisher}
}

// Handle creates an active category. Names are unique ignoring case.
func (h *CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategoryCommand) (*dto.CategoryDTO, error) {
	category, events, err := domain.NewCategory(cmd.Name, cmd.Description)
	if err != nil {
		return nil, err
	}

	if err := ensureUniqueName(ctx, h.categories, category.Name, ""); err != nil {
		return nil, err
	}

	if err := h.categories.Add(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	h.invalidator.CategoryChanged(ctx, category.ID)
	h.publisher.Publish(ctx, events...)

	logger.Info(ctx).Str("category_id", category.ID).Str("name", category.Name).Msg("Category created")

	result := dto.FromCategory(category, 0)
	return &result, nil
}
