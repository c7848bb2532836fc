// Package catalog assembles the catalog service from its repositories, cache, event bus and
// HTTP handlers.
package catalog

import (
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/delivery/http"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/internal/catalog/repository"
	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	gateway "github.com/tair/product-catalog/pkg/cache"
)

// Repositories bundles the two repository ports the handlers depend on
type Repositories struct {
	Products   domain.ProductRepository
	Categories domain.CategoryRepository
}

// ProvideGormRepositories provides postgres-backed repositories wrapped with tracing
func ProvideGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:   repository.NewTracingProductRepository(repository.NewGormProductRepository(db)),
		Categories: repository.NewTracingCategoryRepository(repository.NewGormCategoryRepository(db)),
	}
}

// ProvideMemoryRepositories provides in-process repositories for local mode
func ProvideMemoryRepositories() Repositories {
	store := repository.NewMemoryStore()
	return Repositories{
		Products:   repository.NewTracingProductRepository(store.Products()),
		Categories: repository.NewTracingCategoryRepository(store.Categories()),
	}
}

// ProvideEventPublisher exposes the bus as the command handlers' publisher
func ProvideEventPublisher(bus *events.Bus) domain.EventPublisher {
	return bus
}

// ProvideCacheStore provides the typed cache-aside store
func ProvideCacheStore(gw gateway.Gateway, ttl cache.TTL) *cache.Store {
	return cache.NewStore(gw, ttl)
}

// Handlers holds everything main needs after injection
type Handlers struct {
	Products    *http.ProductHandler
	Categories  *http.CategoryHandler
	Dashboard   *http.DashboardHandler
	AdjustStock *command.AdjustStockHandler
}

func NewHandlers(
	products *http.ProductHandler,
	categories *http.CategoryHandler,
	dashboard *http.DashboardHandler,
	adjustStock *command.AdjustStockHandler,
) *Handlers {
	return &Handlers{
		Products:    products,
		Categories:  categories,
		Dashboard:   dashboard,
		AdjustStock: adjustStock,
	}
}

// RegisterRoutes registers every catalog API route
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	h.Products.RegisterRoutes(router)
	h.Categories.RegisterRoutes(router)
	h.Dashboard.RegisterRoutes(router)
}
