package command

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

// UpdateStockCommand sets a product's quantity on hand
type UpdateStockCommand struct {
	ProductID string
	Quantity  int
}

// UpdateStockHandler handles stock update command
type UpdateStockHandler struct {
	stock *stockWriter
}

// NewUpdateStockHandler creates a new update stock handler
func NewUpdateStockHandler(products domain.ProductRepository, categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *UpdateStockHandler {
	return &UpdateStockHandler{stock: newStockWriter(products, categories, invalidator, publisher)}
}

// Handle executes the update stock command
func (h *UpdateStockHandler) Handle(ctx context.Context, cmd UpdateStockCommand) (*dto.ProductDTO, error) {
	return h.stock.apply(ctx, cmd.ProductID, func(p *domain.Product) ([]domain.DomainEvent, error) {
		return p.UpdateStock(cmd.Quantity)
	})
}

// AdjustStockCommand moves stock by a signed delta
type AdjustStockCommand struct {
	ProductID string
	Delta     int
}

// AdjustStockHandler increases or decreases stock. It serves the HTTP adjust endpoint and
// the purchase consumer.
type AdjustStockHandler struct {
	stock *stockWriter
}

func NewAdjustStockHandler(products domain.ProductRepository, categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *AdjustStockHandler {
	return &AdjustStockHandler{stock: newStockWriter(products, categories, invalidator, publisher)}
}

func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*dto.ProductDTO, error) {
	if cmd.Delta == 0 {
		return nil, fmt.Errorf("%w: stock adjustment cannot be zero", domain.ErrValidation)
	}
	return h.stock.apply(ctx, cmd.ProductID, func(p *domain.Product) ([]domain.DomainEvent, error) {
		if cmd.Delta > 0 {
			return p.IncreaseStock(cmd.Delta)
		}
		return p.DecreaseStock(-cmd.Delta)
	})
}

type stockWriter struct {
	products    domain.ProductRepository
	categories  domain.CategoryRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func newStockWriter(products domain.ProductRepository, categories domain.CategoryRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *stockWriter {
	return &stockWriter{products: products, categories: categories, invalidator: invalidator, publisher: publisher}
}

// apply loads the product, runs mutate and persists only if the quantity actually changed
func (w *stockWriter) apply(ctx context.Context, id string, mutate func(*domain.Product) ([]domain.DomainEvent, error)) (*dto.ProductDTO, error) {
	product, err := w.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	loadedVersion := product.Version
	previous := product.StockQuantity

	events, err := mutate(product)
	if err != nil {
		return nil, err
	}

	name, err := lookupCategoryName(ctx, w.categories, product.CategoryID)
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := w.products.Update(ctx, product, loadedVersion); err != nil {
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}

		w.invalidator.ProductChanged(ctx, product.ID, product.CategoryID)
		w.publisher.Publish(ctx, events...)

		logger.Info(ctx).
			Str("product_id", product.ID).
			Int("previous_stock", previous).
			Int("stock", product.StockQuantity).
			Msg("Product stock updated")
	}

	result := dto.FromProduct(product, name)
	return &result, nil
}
