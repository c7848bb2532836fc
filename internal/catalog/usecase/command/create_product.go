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

// CreateProductCommand represents the command to create a new product
type CreateProductCommand struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CategoryID    string
}

// CreateProductHandler handles product creation command
type CreateProductHandler struct {
	products    domain.ProductRepository
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(products domain.ProductRepository, categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *CreateProductHandler {
	return &CreateProductHandler{products: products, categories: categories, invalidator: invalidator, publisher: publisher}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*dto.ProductDTO, error) {
	category, err := h.categories.GetByID(ctx, cmd.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("category %q does not exist: %w", cmd.CategoryID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	product, events, err := domain.NewProduct(cmd.Name, cmd.Description, cmd.Price, cmd.StockQuantity, category.ID)
	if err != nil {
		return nil, err
	}

	if err := h.products.Add(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	h.invalidator.ProductChanged(ctx, product.ID, category.ID)
	h.publisher.Publish(ctx, events...)

	logger.Info(ctx).
		Str("product_id", product.ID).
		Str("name", product.Name).
		Str("category_id", category.ID).
		Msg("Product created")

	result := dto.FromProduct(product, category.Name)
	return &result, nil
}
