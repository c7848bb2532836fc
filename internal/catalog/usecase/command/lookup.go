package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

func lookupCategoryName(ctx context.Context, categories domain.CategoryRepository, id string) (string, error) {
	category, err := categories.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load category: %w", err)
	}
	return category.Name, nil
}

// ensureUniqueName fails with ErrConflict when another category already uses name
func ensureUniqueName(ctx context.Context, categories domain.CategoryRepository, name, selfID string) error {
	existing, err := categories.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if existing.ID != selfID {
		return fmt.Errorf("category named %q already exists: %w", existing.Name, domain.ErrConflict)
	}
	return nil
}
