package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
)

type SearchProductsQuery struct {
	Term string
}

type SearchProductsHandler struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

func NewSearchProductsHandler(products domain.ProductRepository, categories domain.CategoryRepository) *SearchProductsHandler {
	return &SearchProductsHandler{products: products, categories: categories}
}

// Handle matches product names case-insensitively. A blank term matches nothing.
func (h *SearchProductsHandler) Handle(ctx context.Context, query SearchProductsQuery) ([]dto.ProductDTO, error) {
	term := strings.TrimSpace(query.Term)
	if term == "" {
		return []dto.ProductDTO{}, nil
	}

	products, err := h.products.SearchByName(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return toProductDTOs(ctx, h.categories, products)
}
