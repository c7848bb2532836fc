package command

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/pkg/logger"
)

type DeleteCategoryCommand struct {
	ID string
}

type DeleteCategoryHandler struct {
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func NewDeleteCategoryHandler(categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *DeleteCategoryHandler {
	return &DeleteCategoryHandler{categories: categories, invalidator: invalidator, publisher: publisher}
}

// Handle removes a category. It fails with domain.ErrConflict while products reference it.
func (h *DeleteCategoryHandler) Handle(ctx context.Context, cmd DeleteCategoryCommand) error {
	category, err := h.categories.GetByID(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}

	count, err := h.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	events, err := category.EnsureDeletable(count)
	if err != nil {
		return err
	}

	if err := h.categories.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	h.invalidator.CategoryChanged(ctx, category.ID)
	h.publisher.Publish(ctx, events...)

	logger.Info(ctx).Str("category_id", category.ID).Msg("Category deleted")
	return nil
}
