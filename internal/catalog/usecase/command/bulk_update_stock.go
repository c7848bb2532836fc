package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/pkg/logger"
)

// BulkUpdateStockCommand sets several quantities at once
type BulkUpdateStockCommand struct {
	Quantities map[string]int
}

// BulkUpdateStockHandler applies each entry independently. There is no cross-entity
// transaction; the result lists which entries were applied and why the others were not.
// Entries are written against the version they were validated at, so a concurrent write
// shows up as a conflict for that product.
type BulkUpdateStockHandler struct {
	products    domain.ProductRepository
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
}

func NewBulkUpdateStockHandler(products domain.ProductRepository, invalidator *cache.Invalidator, publisher domain.EventPublisher) *BulkUpdateStockHandler {
	return &BulkUpdateStockHandler{products: products, invalidator: invalidator, publisher: publisher}
}

func (h *BulkUpdateStockHandler) Handle(ctx context.Context, cmd BulkUpdateStockCommand) (*dto.BulkStockResult, error) {
	if len(cmd.Quantities) == 0 {
		return nil, fmt.Errorf("%w: no stock entries given", domain.ErrValidation)
	}

	result := &dto.BulkStockResult{Updated: []string{}, Failed: map[string]string{}}
	pending := make(map[string]domain.StockWrite)
	events := make(map[string][]domain.DomainEvent)
	categoryOf := make(map[string]string)

	ids := make([]string, 0, len(cmd.Quantities))
	for id := range cmd.Quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		product, err := h.products.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && ctx.Err() != nil {
				return nil, err
			}
			result.Failed[id] = err.Error()
			continue
		}

		loadedVersion := product.Version
		produced, err := product.UpdateStock(cmd.Quantities[id])
		if err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		if len(produced) == 0 {
			result.Updated = append(result.Updated, id)
			continue
		}

		pending[id] = domain.StockWrite{Quantity: product.StockQuantity, ExpectedVersion: loadedVersion}
		events[id] = produced
		categoryOf[id] = product.CategoryID
	}

	written, err := h.products.BulkUpdateStock(ctx, pending)
	for _, id := range written {
		result.Updated = append(result.Updated, id)
		h.invalidator.ProductChanged(ctx, id, categoryOf[id])
		h.publisher.Publish(ctx, events[id]...)
	}

	if err != nil {
		var writeErr *domain.StockWriteError
		failedAt := ""
		if errors.As(err, &writeErr) {
			failedAt = writeErr.ProductID
			result.Failed[failedAt] = writeErr.Err.Error()
		}
		done := make(map[string]bool, len(written))
		for _, id := range written {
			done[id] = true
		}
		for id := range pending {
			if !done[id] && id != failedAt {
				result.Failed[id] = "not applied: bulk update stopped early"
			}
		}
		logger.Warn(ctx).Err(err).
			Int("updated", len(result.Updated)).
			Int("failed", len(result.Failed)).
			Msg("Bulk stock update partially applied")
	}

	sort.Strings(result.Updated)

	logger.Info(ctx).
		Int("requested", len(cmd.Quantities)).
		Int("updated", len(result.Updated)).
		Int("failed", len(result.Failed)).
		Msg("Bulk stock update finished")

	return result, nil
}
