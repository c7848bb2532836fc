package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

var sortColumns = map[domain.SortField]string{
	domain.SortByName:          "name",
	domain.SortByPrice:         "price",
	domain.SortByStockQuantity: "stock_quantity",
	domain.SortByCreatedAt:     "created_at",
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

func (r *GormProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, translate(err, "product", id)
	}
	return &product, nil
}

func (r *GormProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Order("name").Find(&products).Error
	return products, err
}

func (r *GormProductRepository) GetPaginated(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{})

	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(term))
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.LowStockOnly {
		query = query.Where("stock_quantity < ?", domain.LowStockThreshold)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if filter.SortDirection == domain.SortDesc {
		direction = "DESC"
	}

	var products []domain.Product
	err := query.
		Order(fmt.Sprintf("%s %s, id", column, direction)).
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) SearchByName(ctx context.Context, term string) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", likePattern(term)).
		Order("name").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("name").Find(&products).Error
	return products, err
}

func (r *GormProductRepository) GetLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("stock_quantity < ?", threshold).
		Order("stock_quantity, name").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Add(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translate(err, "product", product.ID)
	}
	return nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":           product.Name,
			"description":    product.Description,
			"price":          product.Price,
			"stock_quantity": product.StockQuantity,
			"category_id":    product.CategoryID,
			"version":        product.Version,
			"updated_at":     product.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error, "product", product.ID)
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, product.ID)
	}
	return nil
}

func (r *GormProductRepository) missOrConflict(ctx context.Context, id string) error {
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("product %s: %w", id, domain.ErrConcurrencyConflict)
}

func (r *GormProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *GormProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error
	return count, err
}

func (r *GormProductRepository) GetTotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("COALESCE(SUM(price * stock_quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormProductRepository) GetPriceRange(ctx context.Context) (domain.PriceRange, error) {
	var row struct {
		Min decimal.NullDecimal
		Max decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("MIN(price) AS min, MAX(price) AS max").
		Scan(&row).Error
	if err != nil {
		return domain.PriceRange{}, err
	}
	return domain.PriceRange{Min: row.Min.Decimal, Max: row.Max.Decimal}, nil
}

func (r *GormProductRepository) GetTrendingProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&products).Error
	return products, err
}

// BulkUpdateStock writes each entry in its own version-checked statement, in id order
func (r *GormProductRepository) BulkUpdateStock(ctx context.Context, writes map[string]domain.StockWrite) ([]string, error) {
	ids := sortedIDs(writes)
	written := make([]string, 0, len(ids))

	for _, id := range ids {
		w := writes[id]
		result := r.db.WithContext(ctx).
			Model(&domain.Product{}).
			Where("id = ? AND version = ?", id, w.ExpectedVersion).
			Updates(map[string]interface{}{
				"stock_quantity": w.Quantity,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     time.Now().UTC(),
			})
		if result.Error != nil {
			return written, &domain.StockWriteError{ProductID: id, Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return written, &domain.StockWriteError{ProductID: id, Err: r.missOrConflict(ctx, id)}
		}
		written = append(written, id)
	}
	return written, nil
}

func sortedIDs(entries map[string]domain.StockWrite) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + escaped + "%"
}

func translate(err error, kind, id string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrConflict)
	}
	return err
}
