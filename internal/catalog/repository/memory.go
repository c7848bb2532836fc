package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

// MemoryStore keeps products and categories in process memory. It backs the
// STORAGE_DRIVER=memory mode and the handler tests. Values are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	categories map[string]domain.Category
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
	}
}

// Products returns the product view of the store
func (s *MemoryStore) Products() *MemoryProductRepository {
	return &MemoryProductRepository{s: s}
}

// Categories returns the category view of the store
func (s *MemoryStore) Categories() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{s: s}
}

type MemoryProductRepository struct {
	s *MemoryStore
}

func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	return r.filter(ctx, func(domain.Product) bool { return true }, byName)
}

func (r *MemoryProductRepository) GetPaginated(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	matches, err := r.filter(ctx, func(p domain.Product) bool {
		switch {
		case term != "" && !strings.Contains(strings.ToLower(p.Name), term):
			return false
		case f.CategoryID != "" && p.CategoryID != f.CategoryID:
			return false
		case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
			return false
		case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
			return false
		case f.LowStockOnly && !p.IsLowStock():
			return false
		}
		return true
	}, sortBy(f.SortBy, f.SortDirection))
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(matches))
	start := f.Offset()
	if start >= len(matches) || start < 0 {
		return []domain.Product{}, total, nil
	}
	end := start + f.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func (r *MemoryProductRepository) SearchByName(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	return r.filter(ctx, func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term)
	}, byName)
}

func (r *MemoryProductRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return r.filter(ctx, func(p domain.Product) bool { return p.CategoryID == categoryID }, byName)
}

func (r *MemoryProductRepository) GetLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return r.filter(ctx, func(p domain.Product) bool { return p.StockQuantity < threshold }, func(a, b domain.Product) bool {
		if a.StockQuantity != b.StockQuantity {
			return a.StockQuantity < b.StockQuantity
		}
		return a.Name < b.Name
	})
}

func (r *MemoryProductRepository) Add(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; ok {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrConflict)
	}
	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return fmt.Errorf("category %s: %w", product.CategoryID, domain.ErrConflict)
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, product *domain.Product, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[product.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrConcurrencyConflict)
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

func (r *MemoryProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.products[id]
	return ok, nil
}

func (r *MemoryProductRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.s.products)), nil
}

func (r *MemoryProductRepository) GetTotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := decimal.Zero
	for _, p := range r.s.products {
		total = total.Add(p.StockValue())
	}
	return total, nil
}

func (r *MemoryProductRepository) GetPriceRange(ctx context.Context) (domain.PriceRange, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceRange{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out domain.PriceRange
	first := true
	for _, p := range r.s.products {
		if first || p.Price.LessThan(out.Min) {
			out.Min = p.Price
		}
		if first || p.Price.GreaterThan(out.Max) {
			out.Max = p.Price
		}
		first = false
	}
	return out, nil
}

func (r *MemoryProductRepository) GetTrendingProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := r.filter(ctx, func(domain.Product) bool { return true }, func(a, b domain.Product) bool {
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (r *MemoryProductRepository) BulkUpdateStock(ctx context.Context, writes map[string]domain.StockWrite) ([]string, error) {
	written := make([]string, 0, len(writes))
	for _, id := range sortedIDs(writes) {
		if err := ctx.Err(); err != nil {
			return written, &domain.StockWriteError{ProductID: id, Err: err}
		}
		if err := r.writeStock(id, writes[id]); err != nil {
			return written, &domain.StockWriteError{ProductID: id, Err: err}
		}
		written = append(written, id)
	}
	return written, nil
}

func (r *MemoryProductRepository) writeStock(id string, w domain.StockWrite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if p.Version != w.ExpectedVersion {
		return fmt.Errorf("product %s: %w", id, domain.ErrConcurrencyConflict)
	}
	p.StockQuantity = w.Quantity
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.s.products[id] = p
	return nil
}

func (r *MemoryProductRepository) filter(ctx context.Context, keep func(domain.Product) bool, less func(a, b domain.Product) bool) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func byName(a, b domain.Product) bool {
	return a.Name < b.Name
}

func sortBy(field domain.SortField, dir domain.SortDirection) func(a, b domain.Product) bool {
	var less func(a, b domain.Product) bool
	switch field {
	case domain.SortByPrice:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case domain.SortByStockQuantity:
		less = func(a, b domain.Product) bool { return a.StockQuantity < b.StockQuantity }
	case domain.SortByCreatedAt:
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		less = byName
	}
	if dir == domain.SortDesc {
		return func(a, b domain.Product) bool { return less(b, a) }
	}
	return less
}

type MemoryCategoryRepository struct {
	s *MemoryStore
}

func (r *MemoryCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryCategoryRepository) GetAll(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.categories {
		if domain.SameName(c.Name, name) {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", name, domain.ErrNotFound)
}

func (r *MemoryCategoryRepository) Add(ctx context.Context, category *domain.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.categories {
		if c.ID == category.ID || domain.SameName(c.Name, category.Name) {
			return fmt.Errorf("category %s: %w", category.Name, domain.ErrConflict)
		}
	}
	stored := *category
	stored.Products = nil
	r.s.categories[category.ID] = stored
	return nil
}

func (r *MemoryCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[category.ID]; !ok {
		return fmt.Errorf("category %s: %w", category.ID, domain.ErrNotFound)
	}
	for id, c := range r.s.categories {
		if id != category.ID && domain.SameName(c.Name, category.Name) {
			return fmt.Errorf("category %s: %w", category.Name, domain.ErrConflict)
		}
	}
	stored := *category
	stored.Products = nil
	r.s.categories[category.ID] = stored
	return nil
}

func (r *MemoryCategoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return fmt.Errorf("category %s: %w", id, domain.ErrConflict)
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *MemoryCategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.categories[id]
	return ok, nil
}

func (r *MemoryCategoryRepository) CountProducts(ctx context.Context, categoryID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, p := range r.s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryCategoryRepository) GetCategoriesWithProductCount(ctx context.Context) ([]domain.CategoryProductCount, error) {
	categories, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	counts := make(map[string]int64, len(categories))
	for _, p := range r.s.products {
		counts[p.CategoryID]++
	}
	r.s.mu.RUnlock()

	out := make([]domain.CategoryProductCount, 0, len(categories))
	for _, c := range categories {
		out = append(out, domain.CategoryProductCount{Category: c, ProductCount: counts[c.ID]})
	}
	return out, nil
}
