// Package dto holds the read models handed out by the catalog query and command handlers.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

type ProductDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    string          `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	IsLowStock    bool            `json:"is_low_stock"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FromProduct maps a product aggregate, enriched with its category name
func FromProduct(p *domain.Product, categoryName string) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		CategoryName:  categoryName,
		IsLowStock:    p.IsLowStock(),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromProducts maps a slice using a category id → name lookup
func FromProducts(products []domain.Product, categoryNames map[string]string) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, FromProduct(&products[i], categoryNames[products[i].CategoryID]))
	}
	return out
}

type CategoryDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	IsActive      bool       `json:"is_active"`
	ProductCount  int64      `json:"product_count"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func FromCategory(c *domain.Category, productCount int64) CategoryDTO {
	return CategoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		IsActive:      c.IsActive,
		ProductCount:  productCount,
		ActivatedAt:   c.ActivatedAt,
		DeactivatedAt: c.DeactivatedAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// PagedResult is one page of a filtered listing
type PagedResult[T any] struct {
	Items       []T   `json:"items"`
	PageNumber  int   `json:"page_number"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
}

// NewPagedResult computes the paging metadata; totalCount is independent of the window
func NewPagedResult[T any](items []T, pageNumber, pageSize int, totalCount int64) PagedResult[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}

	return PagedResult[T]{
		Items:       items,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}

type CategoryStats struct {
	CategoryID    string          `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	IsActive      bool            `json:"is_active"`
	ProductCount  int             `json:"product_count"`
	TotalStock    int             `json:"total_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
}

type DashboardData struct {
	TotalProducts    int64             `json:"total_products"`
	TotalCategories  int               `json:"total_categories"`
	ActiveCategories int               `json:"active_categories"`
	TotalStockValue  decimal.Decimal   `json:"total_stock_value"`
	LowStockCount    int               `json:"low_stock_count"`
	LowStockProducts []ProductDTO      `json:"low_stock_products"`
	CategoryStats    []CategoryStats   `json:"category_stats"`
	PriceRange       domain.PriceRange `json:"price_range"`
	TrendingProducts []ProductDTO      `json:"trending_products"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// BulkStockResult reports which entries of a bulk stock update were applied
type BulkStockResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed"`
}

// Partial reports whether some but not all entries were applied
func (r BulkStockResult) Partial() bool {
	return len(r.Updated) > 0 && len(r.Failed) > 0
}
