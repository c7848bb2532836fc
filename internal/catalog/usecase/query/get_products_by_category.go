package query

import (
	"context"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type GetProductsByCategoryQuery struct {
	CategoryID string
}

type GetProductsByCategoryHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewGetProductsByCategoryHandler(products domain.ProductRepository, categories domain.CategoryRepository) *GetProductsByCategoryHandler {
	return &GetProductsByCategoryHandler{products: products, categories: categories}
}

// Handle lists the products of one category. An unknown category is ErrNotFound.
func (h *GetProductsByCategoryHandler) Handle(ctx context.Context, query GetProductsByCategoryQuery) ([]dto.ProductDTO, error) {
	category, err := h.categories.GetByID(ctx, query.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	products, err := h.products.GetByCategoryID(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return dto.FromProducts(products, map[string]string{category.ID: category.Name}), nil
}
