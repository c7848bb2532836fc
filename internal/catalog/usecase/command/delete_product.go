package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/pkg/logger"
)

// DeleteProductCommand represents the command to delete a product
type DeleteProductCommand struct {
	ID string
}

// DeleteProductHandler handles product deletion command
type DeleteProductHandler struct {
	products    domain.ProductRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(products domain.ProductRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *DeleteProductHandler {
	return &DeleteProductHandler{products: products, invalidator: invalidator, publisher: publisher}
}

// Handle deletes the product and reports whether it existed
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) (bool, error) {
	product, err := h.products.GetByID(ctx, cmd.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load product: %w", err)
	}

	if err := h.products.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	h.invalidator.ProductChanged(ctx, product.ID, product.CategoryID)
	h.publisher.Publish(ctx, product.MarkDeleted()...)

	logger.Info(ctx).Str("product_id", product.ID).Msg("Product deleted")
	return true, nil
}
