package command

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

// SetCategoryActiveCommand activates or deactivates a category
type SetCategoryActiveCommand struct {
	ID     string
	Active bool
}

// SetCategoryActiveHandler handles both transitions. Moving into the state already held
// writes nothing and emits nothing.
type SetCategoryActiveHandler struct {
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func NewSetCategoryActiveHandler(categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *SetCategoryActiveHandler {
	return &SetCategoryActiveHandler{categories: categories, invalidator: invalidator, publisher: publisher}
}

func (h *SetCategoryActiveHandler) Handle(ctx context.Context, cmd SetCategoryActiveCommand) (*dto.CategoryDTO, error) {
	category, err := h.categories.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	count, err := h.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var events []domain.DomainEvent
	if cmd.Active {
		events = category.Activate()
	} else {
		events = category.Deactivate()
	}

	if len(events) > 0 {
		if err := h.categories.Update(ctx, category); err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}

		h.invalidator.CategoryChanged(ctx, category.ID)
		h.publisher.Publish(ctx, events...)

		logger.Info(ctx).
			Str("category_id", category.ID).
			Bool("active", category.IsActive).
			Msg("Category status changed")
	}

	result := dto.FromCategory(category, count)
	return &result, nil
}
