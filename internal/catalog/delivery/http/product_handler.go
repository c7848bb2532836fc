package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	"github.com/tair/product-catalog/pkg/authz"
	"github.com/tair/product-catalog/pkg/logger"
)

// ProductHandler handles HTTP requests for products using CQRS pattern
type ProductHandler struct {
	// Command handlers
	createHandler      *command.CreateProductHandler
	updateHandler      *command.UpdateProductHandler
	deleteHandler      *command.DeleteProductHandler
	updateStockHandler *command.UpdateStockHandler
	adjustStockHandler *command.AdjustStockHandler
	bulkStockHandler   *command.BulkUpdateStockHandler

	// Query handlers
	getProductHandler *query.GetProductHandler
	listHandler       *query.ListProductsHandler
	allHandler        *query.GetAllProductsHandler
	searchHandler     *query.SearchProductsHandler
	byCategoryHandler *query.GetProductsByCategoryHandler
	lowStockHandler   *query.GetLowStockHandler

	repo  domain.ProductRepository
	guard *Guard
}

// NewProductHandler creates a product handler. It is used by Wire.
func NewProductHandler(
	createHandler *command.CreateProductHandler,
	updateHandler *command.UpdateProductHandler,
	deleteHandler *command.DeleteProductHandler,
	updateStockHandler *command.UpdateStockHandler,
	adjustStockHandler *command.AdjustStockHandler,
	bulkStockHandler *command.BulkUpdateStockHandler,
	getProductHandler *query.GetProductHandler,
	listHandler *query.ListProductsHandler,
	allHandler *query.GetAllProductsHandler,
	searchHandler *query.SearchProductsHandler,
	byCategoryHandler *query.GetProductsByCategoryHandler,
	lowStockHandler *query.GetLowStockHandler,
	repo domain.ProductRepository,
	guard *Guard,
) *ProductHandler {
	return &ProductHandler{
		createHandler:      createHandler,
		updateHandler:      updateHandler,
		deleteHandler:      deleteHandler,
		updateStockHandler: updateStockHandler,
		adjustStockHandler: adjustStockHandler,
		bulkStockHandler:   bulkStockHandler,
		getProductHandler:  getProductHandler,
		listHandler:        listHandler,
		allHandler:         allHandler,
		searchHandler:      searchHandler,
		byCategoryHandler:  byCategoryHandler,
		lowStockHandler:    lowStockHandler,
		repo:               repo,
		guard:              guard,
	}
}

func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	const (
		base     = "/api/v1/products"
		byID     = base + "/{id}"
		stock    = byID + "/stock"
		adjust   = stock + "/adjust"
		bulk     = base + "/stock/bulk"
		all      = base + "/all"
		search   = base + "/search"
		lowStock = base + "/low-stock"
		category = base + "/category/{categoryId}"
	)

	route := func(path string, perm authz.Permission, fn http.HandlerFunc, method string) {
		router.HandleFunc(path, metricsMiddleware(path, h.guard.Require(perm, fn))).Methods(method)
	}

	// Fixed paths first so they are not captured by {id}
	route(all, authz.ProductRead, h.GetAllProducts, http.MethodGet)
	route(search, authz.ProductRead, h.SearchProducts, http.MethodGet)
	route(lowStock, authz.ProductRead, h.GetLowStock, http.MethodGet)
	route(category, authz.ProductRead, h.GetProductsByCategory, http.MethodGet)
	route(bulk, authz.StockUpdate, h.BulkUpdateStock, http.MethodPatch)

	route(base, authz.ProductRead, h.ListProducts, http.MethodGet)
	route(base, authz.ProductCreate, h.CreateProduct, http.MethodPost)
	route(byID, authz.ProductRead, h.GetProduct, http.MethodGet)
	route(byID, authz.ProductUpdate, h.UpdateProduct, http.MethodPut)
	route(byID, authz.ProductDelete, h.DeleteProduct, http.MethodDelete)
	route(stock, authz.StockUpdate, h.UpdateStock, http.MethodPatch)
	route(adjust, authz.StockUpdate, h.AdjustStock, http.MethodPatch)
}

type createProductRequest struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0,lte=1000000000"`
	CategoryID    string          `json:"category_id" validate:"required"`
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.createHandler.Handle(r.Context(), command.CreateProductCommand{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Create product")
		return
	}

	h.updateProductsMetric(r.Context())
	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := h.getProductHandler.Handle(r.Context(), query.GetProductQuery{ID: id})
	if err != nil {
		respondFailure(r.Context(), w, err, "Get product")
		return
	}
	if product == nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: product})
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.listHandler.Handle(r.Context(), q)
	if err != nil {
		respondFailure(r.Context(), w, err, "List products")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: page})
}

// GetAllProducts handles GET /api/v1/products/all
func (h *ProductHandler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.allHandler.Handle(r.Context())
	if err != nil {
		respondFailure(r.Context(), w, err, "List all products")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// SearchProducts handles GET /api/v1/products/search?term=
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.searchHandler.Handle(r.Context(), query.SearchProductsQuery{
		Term: r.URL.Query().Get("term"),
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Search products")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// GetLowStock handles GET /api/v1/products/low-stock?threshold=
func (h *ProductHandler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := intParam(r, "threshold", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid threshold")
		return
	}

	products, err := h.lowStockHandler.Handle(r.Context(), query.GetLowStockQuery{Threshold: threshold})
	if err != nil {
		respondFailure(r.Context(), w, err, "Get low stock products")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// GetProductsByCategory handles GET /api/v1/products/category/{categoryId}
func (h *ProductHandler) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.byCategoryHandler.Handle(r.Context(), query.GetProductsByCategoryQuery{
		CategoryID: mux.Vars(r)["categoryId"],
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Get products by category")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

type updateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id" validate:"required"`
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.updateHandler.Handle(r.Context(), command.UpdateProductCommand{
		ID:          mux.Vars(r)["id"],
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Update product")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ID: mux.Vars(r)["id"]})
	if err != nil {
		respondFailure(r.Context(), w, err, "Delete product")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.updateProductsMetric(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type updateStockRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=1000000000"`
}

// UpdateStock handles PATCH /api/v1/products/{id}/stock
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req updateStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.updateStockHandler.Handle(r.Context(), command.UpdateStockCommand{
		ProductID: mux.Vars(r)["id"],
		Quantity:  *req.Quantity,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Update stock")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock updated successfully",
		Data:    product,
	})
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"ne=0,gte=-1000000000,lte=1000000000"`
}

// AdjustStock handles PATCH /api/v1/products/{id}/stock/adjust
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.adjustStockHandler.Handle(r.Context(), command.AdjustStockCommand{
		ProductID: mux.Vars(r)["id"],
		Delta:     req.Delta,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Adjust stock")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock adjusted successfully",
		Data:    product,
	})
}

type bulkStockItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=1000000000"`
}

type bulkStockRequest struct {
	Items []bulkStockItem `json:"items" validate:"required,min=1,dive"`
}

// BulkUpdateStock handles PATCH /api/v1/products/stock/bulk. A partially applied batch
// answers 207 with the per-product outcome.
func (h *ProductHandler) BulkUpdateStock(w http.ResponseWriter, r *http.Request) {
	var req bulkStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quantities := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		quantities[item.ProductID] = item.Quantity
	}

	result, err := h.bulkStockHandler.Handle(r.Context(), command.BulkUpdateStockCommand{Quantities: quantities})
	if err != nil {
		respondFailure(r.Context(), w, err, "Bulk stock update")
		return
	}

	status, message := http.StatusOK, "Stock updated successfully"
	if result.Partial() {
		status, message = http.StatusMultiStatus, "Stock update partially applied"
	}
	respondJSON(w, status, Response{Success: len(result.Failed) == 0, Message: message, Data: result})
}

// updateProductsMetric refreshes the product gauge
func (h *ProductHandler) updateProductsMetric(ctx context.Context) {
	count, err := h.repo.Count(ctx)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to refresh product count metric")
		return
	}
	totalProducts.Set(float64(count))
}

func parseListQuery(r *http.Request) (query.ListProductsQuery, error) {
	values := r.URL.Query()

	pageNumber, err := intParam(r, "pageNumber", 1)
	if err != nil {
		return query.ListProductsQuery{}, errors.New("pageNumber must be an integer")
	}
	pageSize, err := intParam(r, "pageSize", query.DefaultPageSize)
	if err != nil {
		return query.ListProductsQuery{}, errors.New("pageSize must be an integer")
	}

	q := query.ListProductsQuery{
		PageNumber:    pageNumber,
		PageSize:      pageSize,
		SearchTerm:    values.Get("searchTerm"),
		CategoryID:    values.Get("categoryId"),
		SortBy:        values.Get("sortBy"),
		SortDirection: values.Get("sortDirection"),
	}

	if q.MinPrice, err = decimalParam(r, "minPrice"); err != nil {
		return query.ListProductsQuery{}, errors.New("minPrice must be a number")
	}
	if q.MaxPrice, err = decimalParam(r, "maxPrice"); err != nil {
		return query.ListProductsQuery{}, errors.New("maxPrice must be a number")
	}
	if raw := values.Get("lowStockOnly"); raw != "" {
		if q.LowStockOnly, err = strconv.ParseBool(raw); err != nil {
			return query.ListProductsQuery{}, errors.New("lowStockOnly must be a boolean")
		}
	}
	return q, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func decimalParam(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
