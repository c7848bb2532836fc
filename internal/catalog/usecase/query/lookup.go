package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

func categoryName(ctx context.Context, categories domain.CategoryRepository, id string) (string, error) {
	category, err := categories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load category: %w", err)
	}
	return category.Name, nil
}

// categoryNames loads every category once so product lists can be enriched without a lookup per row
func categoryNames(ctx context.Context, categories domain.CategoryRepository) (map[string]string, error) {
	all, err := categories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	names := make(map[string]string, len(all))
	for _, c := range all {
		names[c.ID] = c.Name
	}
	return names, nil
}

func toProductDTOs(ctx context.Context, categories domain.CategoryRepository, products []domain.Product) ([]dto.ProductDTO, error) {
	if len(products) == 0 {
		return []dto.ProductDTO{}, nil
	}
	names, err := categoryNames(ctx, categories)
	if err != nil {
		return nil, err
	}
	return dto.FromProducts(products, names), nil
}

// buildCategoryStats aggregates per-category figures from one pass over the products
func buildCategoryStats(categories []domain.Category, products []domain.Product) []dto.CategoryStats {
	index := make(map[string]*dto.CategoryStats, len(categories))
	stats := make([]dto.CategoryStats, len(categories))
	for i, c := range categories {
		stats[i] = dto.CategoryStats{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			IsActive:     c.IsActive,
			TotalValue:   decimal.Zero,
		}
		index[c.ID] = &stats[i]
	}

	for i := range products {
		p := &products[i]
		s, ok := index[p.CategoryID]
		if !ok {
			continue
		}
		s.ProductCount++
		s.TotalStock += p.StockQuantity
		s.TotalValue = s.TotalValue.Add(p.StockValue())
		if p.IsLowStock() {
			s.LowStockCount++
		}
	}
	return stats
}
