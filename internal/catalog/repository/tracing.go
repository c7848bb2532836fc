package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/product-catalog/internal/catalog/domain"
)

var tracer = otel.Tracer("catalog-repository")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TracingProductRepository wraps a ProductRepository with a span per call
type TracingProductRepository struct {
	next domain.ProductRepository
}

func NewTracingProductRepository(next domain.ProductRepository) *TracingProductRepository {
	return &TracingProductRepository{next: next}
}

func (r *TracingProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetByID", attribute.String("product.id", id))
	product, err := r.next.GetByID(ctx, id)
	if err == nil {
		span.SetAttributes(
			attribute.String("product.name", product.Name),
			attribute.Int("product.version", product.Version),
		)
	}
	finish(span, err)
	return product, err
}

func (r *TracingProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetAll")
	products, err := r.next.GetAll(ctx)
	span.SetAttributes(attribute.Int("result.count", len(products)))
	finish(span, err)
	return products, err
}

func (r *TracingProductRepository) GetPaginated(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetPaginated",
		attribute.Int("query.page", filter.PageNumber),
		attribute.Int("query.page_size", filter.PageSize),
		attribute.String("query.search", filter.SearchTerm),
		attribute.String("query.category_id", filter.CategoryID),
		attribute.String("query.sort_by", string(filter.SortBy)),
	)
	products, total, err := r.next.GetPaginated(ctx, filter)
	span.SetAttributes(
		attribute.Int("result.count", len(products)),
		attribute.Int64("result.total", total),
	)
	finish(span, err)
	return products, total, err
}

func (r *TracingProductRepository) SearchByName(ctx context.Context, term string) ([]domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.SearchByName", attribute.String("query.term", term))
	products, err := r.next.SearchByName(ctx, term)
	span.SetAttributes(attribute.Int("result.count", len(products)))
	finish(span, err)
	return products, err
}

func (r *TracingProductRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetByCategoryID", attribute.String("category.id", categoryID))
	products, err := r.next.GetByCategoryID(ctx, categoryID)
	span.SetAttributes(attribute.Int("result.count", len(products)))
	finish(span, err)
	return products, err
}

func (r *TracingProductRepository) GetLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetLowStock", attribute.Int("query.threshold", threshold))
	products, err := r.next.GetLowStock(ctx, threshold)
	span.SetAttributes(attribute.Int("result.count", len(products)))
	finish(span, err)
	return products, err
}

func (r *TracingProductRepository) Add(ctx context.Context, product *domain.Product) error {
	ctx, span := startSpan(ctx, "repository.Product.Add",
		attribute.String("product.id", product.ID),
		attribute.String("product.name", product.Name),
		attribute.String("product.category_id", product.CategoryID),
		attribute.Int("product.stock", product.StockQuantity),
	)
	err := r.next.Add(ctx, product)
	finish(span, err)
	return err
}

func (r *TracingProductRepository) Update(ctx context.Context, product *domain.Product, expectedVersion int) error {
	ctx, span := startSpan(ctx, "repository.Product.Update",
		attribute.String("product.id", product.ID),
		attribute.Int("product.expected_version", expectedVersion),
		attribute.Int("product.version", product.Version),
	)
	err := r.next.Update(ctx, product, expectedVersion)
	finish(span, err)
	return err
}

func (r *TracingProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "repository.Product.Delete", attribute.String("product.id", id))
	err := r.next.Delete(ctx, id)
	finish(span, err)
	return err
}

func (r *TracingProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := startSpan(ctx, "repository.Product.Exists", attribute.String("product.id", id))
	ok, err := r.next.Exists(ctx, id)
	span.SetAttributes(attribute.Bool("result.exists", ok))
	finish(span, err)
	return ok, err
}

func (r *TracingProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := startSpan(ctx, "repository.Product.Count")
	n, err := r.next.Count(ctx)
	span.SetAttributes(attribute.Int64("result.count", n))
	finish(span, err)
	return n, err
}

func (r *TracingProductRepository) GetTotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetTotalStockValue")
	total, err := r.next.GetTotalStockValue(ctx)
	span.SetAttributes(attribute.String("result.total", total.String()))
	finish(span, err)
	return total, err
}

func (r *TracingProductRepository) GetPriceRange(ctx context.Context) (domain.PriceRange, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetPriceRange")
	rng, err := r.next.GetPriceRange(ctx)
	finish(span, err)
	return rng, err
}

func (r *TracingProductRepository) GetTrendingProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	ctx, span := startSpan(ctx, "repository.Product.GetTrendingProducts", attribute.Int("query.limit", limit))
	products, err := r.next.GetTrendingProducts(ctx, limit)
	finish(span, err)
	return products, err
}

func (r *TracingProductRepository) BulkUpdateStock(ctx context.Context, writes map[string]domain.StockWrite) ([]string, error) {
	ctx, span := startSpan(ctx, "repository.Product.BulkUpdateStock", attribute.Int("query.entries", len(writes)))
	written, err := r.next.BulkUpdateStock(ctx, writes)
	span.SetAttributes(attribute.Int("result.written", len(written)))
	finish(span, err)
	return written, err
}

// TracingCategoryRepository wraps a CategoryRepository with a span per call
type TracingCategoryRepository struct {
	next domain.CategoryRepository
}

func NewTracingCategoryRepository(next domain.CategoryRepository) *TracingCategoryRepository {
	return &TracingCategoryRepository{next: next}
}

func (r *TracingCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	ctx, span := startSpan(ctx, "repository.Category.GetByID", attribute.String("category.id", id))
	category, err := r.next.GetByID(ctx, id)
	finish(span, err)
	return category, err
}

func (r *TracingCategoryRepository) GetAll(ctx context.Context) ([]domain.Category, error) {
	ctx, span := startSpan(ctx, "repository.Category.GetAll")
	categories, err := r.next.GetAll(ctx)
	span.SetAttributes(attribute.Int("result.count", len(categories)))
	finish(span, err)
	return categories, err
}

func (r *TracingCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	ctx, span := startSpan(ctx, "repository.Category.GetByName", attribute.String("category.name", name))
	category, err := r.next.GetByName(ctx, name)
	finish(span, err)
	return category, err
}

func (r *TracingCategoryRepository) Add(ctx context.Context, category *domain.Category) error {
	ctx, span := startSpan(ctx, "repository.Category.Add",
		attribute.String("category.id", category.ID),
		attribute.String("category.name", category.Name),
	)
	err := r.next.Add(ctx, category)
	finish(span, err)
	return err
}

func (r *TracingCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	ctx, span := startSpan(ctx, "repository.Category.Update",
		attribute.String("category.id", category.ID),
		attribute.Bool("category.is_active", category.IsActive),
	)
	err := r.next.Update(ctx, category)
	finish(span, err)
	return err
}

func (r *TracingCategoryRepository) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "repository.Category.Delete", attribute.String("category.id", id))
	err := r.next.Delete(ctx, id)
	finish(span, err)
	return err
}

func (r *TracingCategoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := startSpan(ctx, "repository.Category.Exists", attribute.String("category.id", id))
	ok, err := r.next.Exists(ctx, id)
	finish(span, err)
	return ok, err
}

func (r *TracingCategoryRepository) CountProducts(ctx context.Context, categoryID string) (int64, error) {
	ctx, span := startSpan(ctx, "repository.Category.CountProducts", attribute.String("category.id", categoryID))
	n, err := r.next.CountProducts(ctx, categoryID)
	span.SetAttributes(attribute.Int64("result.count", n))
	finish(span, err)
	return n, err
}

func (r *TracingCategoryRepository) GetCategoriesWithProductCount(ctx context.Context) ([]domain.CategoryProductCount, error) {
	ctx, span := startSpan(ctx, "repository.Category.GetCategoriesWithProductCount")
	rows, err := r.next.GetCategoriesWithProductCount(ctx)
	span.SetAttributes(attribute.Int("result.count", len(rows)))
	finish(span, err)
	return rows, err
}
