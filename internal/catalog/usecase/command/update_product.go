package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

// UpdateProductCommand represents the command to update a product's details and category
type UpdateProductCommand struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
}

// UpdateProductHandler handles product update command
type UpdateProductHandler struct {
	products    domain.ProductRepository
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(products domain.ProductRepository, categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *UpdateProductHandler {
	return &UpdateProductHandler{products: products, categories: categories, invalidator: invalidator, publisher: publisher}
}

// Handle executes the update product command. The write fails with domain.ErrConcurrencyConflict
// when the product changed after it was loaded.
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*dto.ProductDTO, error) {
	product, err := h.products.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	category, err := h.categories.GetByID(ctx, cmd.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("category %q does not exist: %w", cmd.CategoryID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	loadedVersion := product.Version
	previousCategory := product.CategoryID

	events, err := product.UpdateBasicInfo(cmd.Name, cmd.Description, cmd.Price)
	if err != nil {
		return nil, err
	}
	moved, err := product.UpdateCategory(category.ID)
	if err != nil {
		return nil, err
	}
	events = append(events, moved...)

	if err := h.products.Update(ctx, product, loadedVersion); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	h.invalidator.ProductChanged(ctx, product.ID, previousCategory, product.CategoryID)
	h.publisher.Publish(ctx, events...)

	logger.Info(ctx).
		Str("product_id", product.ID).
		Int("version", product.Version).
		Msg("Product updated")

	result := dto.FromProduct(product, category.Name)
	return &result, nil
}
