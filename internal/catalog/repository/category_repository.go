package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// AutoMigrate creates categories before products so the foreign key resolves
func (r *GormCategoryRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Category{}, &domain.Product{})
}

func (r *GormCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var category domain.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, translate(err, "category", id)
	}
	return &category, nil
}

func (r *GormCategoryRepository) GetAll(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *GormCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", domain.NameKey(name)).
		First(&category).Error
	if err != nil {
		return nil, translate(err, "category", name)
	}
	return &category, nil
}

func (r *GormCategoryRepository) Add(ctx context.Context, category *domain.Category) error {
	if err := r.db.WithContext(ctx).Omit("Products").Create(category).Error; err != nil {
		return translate(err, "category", category.ID)
	}
	return nil
}

func (r *GormCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":           category.Name,
			"description":    category.Description,
			"is_active":      category.IsActive,
			"activated_at":   category.ActivatedAt,
			"deactivated_at": category.DeactivatedAt,
			"updated_at":     category.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error, "category", category.ID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %s: %w", category.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *GormCategoryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{})
	if result.Error != nil {
		return translate(result.Error, "category", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *GormCategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormCategoryRepository) CountProducts(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *GormCategoryRepository) GetCategoriesWithProductCount(ctx context.Context) ([]domain.CategoryProductCount, error) {
	var rows []struct {
		domain.Category
		ProductCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id").
		Order("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryProductCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CategoryProductCount{Category: row.Category, ProductCount: row.ProductCount})
	}
	return out, nil
}
