package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// SortField is a product column a page can be ordered by
type SortField string

const (
	SortByName          SortField = "Name"
	SortByPrice         SortField = "Price"
	SortByStockQuantity SortField = "StockQuantity"
	SortByCreatedAt     SortField = "CreatedAt"
)

// ParseSortField matches a sort field case-insensitively; blank defaults to Name
func ParseSortField(raw string) (SortField, bool) {
	if strings.TrimSpace(raw) == "" {
		return SortByName, true
	}
	for _, f := range []SortField{SortByName, SortByPrice, SortByStockQuantity, SortByCreatedAt} {
		if strings.EqualFold(raw, string(f)) {
			return f, true
		}
	}
	return "", false
}

// SortDirection orders a page ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection matches a direction case-insensitively; blank defaults to asc
func ParseSortDirection(raw string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	}
	return "", false
}

// ProductFilter selects one page of products. All set filters are combined with AND.
type ProductFilter struct {
	PageNumber    int
	PageSize      int
	SearchTerm    string
	CategoryID    string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	LowStockOnly  bool
	SortBy        SortField
	SortDirection SortDirection
}

// Offset is the number of rows skipped before the page starts
func (f ProductFilter) Offset() int {
	return (f.PageNumber - 1) * f.PageSize
}

// PriceRange is the lowest and highest product price
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CategoryProductCount pairs a category with the number of products referencing it
type CategoryProductCount struct {
	Category     Category
	ProductCount int64
}

// ProductRepository persists product aggregates. Lookups of a missing id return ErrNotFound.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	GetPaginated(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	SearchByName(ctx context.Context, term string) ([]Product, error)
	GetByCategoryID(ctx context.Context, categoryID string) ([]Product, error)
	GetLowStock(ctx context.Context, threshold int) ([]Product, error)
	Add(ctx context.Context, product *Product) error
	// Update writes product only if the stored version still equals expectedVersion,
	// otherwise it returns ErrConcurrencyConflict.
	Update(ctx context.Context, product *Product, expectedVersion int) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	GetTotalStockValue(ctx context.Context) (decimal.Decimal, error)
	GetPriceRange(ctx context.Context) (PriceRange, error)
	GetTrendingProducts(ctx context.Context, limit int) ([]Product, error)
	// BulkUpdateStock applies each write independently in id order and returns the ids written
	// before the first failure. An entry whose stored version no longer equals ExpectedVersion
	// stops the batch with ErrConcurrencyConflict.
	BulkUpdateStock(ctx context.Context, writes map[string]StockWrite) ([]string, error)
}

// StockWrite is one entry of a bulk stock update
type StockWrite struct {
	Quantity        int
	ExpectedVersion int
}

// StockWriteError names the product a bulk stock write stopped at
type StockWriteError struct {
	ProductID string
	Err       error
}

func (e *StockWriteError) Error() string {
	return "stock write failed for product " + e.ProductID + ": " + e.Err.Error()
}

func (e *StockWriteError) Unwrap() error {
	return e.Err
}

// CategoryRepository persists category aggregates. Lookups of a missing id return ErrNotFound.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*Category, error)
	GetAll(ctx context.Context) ([]Category, error)
	// GetByName matches case-insensitively
	GetByName(ctx context.Context, name string) (*Category, error)
	Add(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	CountProducts(ctx context.Context, categoryID string) (int64, error)
	GetCategoriesWithProductCount(ctx context.Context) ([]CategoryProductCount, error)
}
