package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

// TrendingLimit is how many recently updated products the dashboard shows
const TrendingLimit = 5

type GetDashboardHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	stats      *GetCategoryStatsHandler
	store      *cache.Store
}

func NewGetDashboardHandler(products domain.ProductRepository, categories domain.CategoryRepository, stats *GetCategoryStatsHandler, store *cache.Store) *GetDashboardHandler {
	return &GetDashboardHandler{products: products, categories: categories, stats: stats, store: store}
}

func (h *GetDashboardHandler) Handle(ctx context.Context) (*dto.DashboardData, error) {
	var cached dto.DashboardData
	if h.store.Get(ctx, cache.DashboardKey, &cached) {
		return &cached, nil
	}

	total, err := h.products.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	stockValue, err := h.products.GetTotalStockValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock value: %w", err)
	}
	priceRange, err := h.products.GetPriceRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price range: %w", err)
	}
	lowStock, err := h.products.GetLowStock(ctx, domain.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}
	trending, err := h.products.GetTrendingProducts(ctx, TrendingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trending products: %w", err)
	}

	stats, err := h.stats.compute(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(stats))
	active := 0
	for _, s := range stats {
		names[s.CategoryID] = s.CategoryName
		if s.IsActive {
			active++
		}
	}

	data := dto.DashboardData{
		TotalProducts:    total,
		TotalCategories:  len(stats),
		ActiveCategories: active,
		TotalStockValue:  stockValue,
		LowStockCount:    len(lowStock),
		LowStockProducts: dto.FromProducts(lowStock, names),
		CategoryStats:    stats,
		PriceRange:       priceRange,
		TrendingProducts: dto.FromProducts(trending, names),
		GeneratedAt:      time.Now().UTC(),
	}

	h.store.SetList(ctx, cache.DashboardKey, data)
	return &data, nil
}
