//go:build wireinject
// +build wireinject

package catalog

import (
	"github.com/google/wire"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/delivery/http"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	gateway "github.com/tair/product-catalog/pkg/cache"
)

// Wire sets
var RepositorySet = wire.NewSet(
	wire.FieldsOf(new(Repositories), "Products", "Categories"),
)

var CacheSet = wire.NewSet(
	ProvideCacheStore,
	cache.NewInvalidator,
)

var CommandSet = wire.NewSet(
	command.NewCreateProductHandler,
	command.NewUpdateProductHandler,
	command.NewDeleteProductHandler,
	command.NewUpdateStockHandler,
	command.NewAdjustStockHandler,
	command.NewBulkUpdateStockHandler,
	command.NewCreateCategoryHandler,
	command.NewUpdateCategoryHandler,
	command.NewDeleteCategoryHandler,
	command.NewSetCategoryActiveHandler,
)

var QuerySet = wire.NewSet(
	query.NewGetProductHandler,
	query.NewListProductsHandler,
	query.NewGetAllProductsHandler,
	query.NewSearchProductsHandler,
	query.NewGetProductsByCategoryHandler,
	query.NewGetLowStockHandler,
	query.NewGetCategoryHandler,
	query.NewListCategoriesHandler,
	query.NewGetCategoryStatsHandler,
	query.NewGetDashboardHandler,
)

var HandlerSet = wire.NewSet(
	http.NewProductHandler,
	http.NewCategoryHandler,
	http.NewDashboardHandler,
	NewHandlers,
)

// InitializeHandlers initializes the HTTP handlers with all dependencies
func InitializeHandlers(repos Repositories, gw gateway.Gateway, ttl cache.TTL, bus *events.Bus, guard *http.Guard) (*Handlers, error) {
	wire.Build(
		RepositorySet,
		CacheSet,
		ProvideEventPublisher,
		CommandSet,
		QuerySet,
		HandlerSet,
	)
	return nil, nil
}
