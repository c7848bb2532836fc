package query

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListProductsQuery represents one page of the filtered product listing
type ListProductsQuery struct {
	PageNumber    int
	PageSize      int
	SearchTerm    string
	CategoryID    string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	LowStockOnly  bool
	SortBy        string
	SortDirection string
}

// ListProductsHandler handles the paginated product listing. Pages are not cached.
type ListProductsHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewListProductsHandler(products domain.ProductRepository, categories domain.CategoryRepository) *ListProductsHandler {
	return &ListProductsHandler{products: products, categories: categories}
}

func (h *ListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) (*dto.PagedResult[dto.ProductDTO], error) {
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}

	products, total, err := h.products.GetPaginated(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	items, err := toProductDTOs(ctx, h.categories, products)
	if err != nil {
		return nil, err
	}

	page := dto.NewPagedResult(items, filter.PageNumber, filter.PageSize, total)
	return &page, nil
}

func (q ListProductsQuery) toFilter() (domain.ProductFilter, error) {
	if q.PageNumber < 1 {
		return domain.ProductFilter{}, fmt.Errorf("%w: page number must be at least 1", domain.ErrValidation)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return domain.ProductFilter{}, fmt.Errorf("%w: page size must be between 1 and %d", domain.ErrValidation, MaxPageSize)
	}
	if q.PageNumber > math.MaxInt/q.PageSize {
		return domain.ProductFilter{}, fmt.Errorf("%w: page number %d is out of range", domain.ErrValidation, q.PageNumber)
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return domain.ProductFilter{}, fmt.Errorf("%w: minimum price cannot be negative", domain.ErrValidation)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return domain.ProductFilter{}, fmt.Errorf("%w: minimum price exceeds maximum price", domain.ErrValidation)
	}

	sortBy, ok := domain.ParseSortField(q.SortBy)
	if !ok {
		return domain.ProductFilter{}, fmt.Errorf("%w: unknown sort field %q", domain.ErrValidation, q.SortBy)
	}
	direction, ok := domain.ParseSortDirection(q.SortDirection)
	if !ok {
		return domain.ProductFilter{}, fmt.Errorf("%w: sort direction must be asc or desc", domain.ErrValidation)
	}

	return domain.ProductFilter{
		PageNumber:    q.PageNumber,
		PageSize:      q.PageSize,
		SearchTerm:    q.SearchTerm,
		CategoryID:    q.CategoryID,
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
		LowStockOnly:  q.LowStockOnly,
		SortBy:        sortBy,
		SortDirection: direction,
	}, nil
}
