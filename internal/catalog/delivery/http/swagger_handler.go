package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for Catalog Service
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// ListProducts godoc
// @Summary List products
// @Description Paginated, filtered and sorted product listing
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param pageNumber query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Param searchTerm query string false "Name or description contains"
// @Param categoryId query string false "Category ID"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param lowStockOnly query bool false "Only products below the low stock threshold"
// @Param sortBy query string false "Name, Price, StockQuantity or CreatedAt"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} object{success=bool,data=dto.PagedResult[dto.ProductDTO]}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProductsDoc() {}

// CreateProduct godoc
// @Summary Create product
// @Description Create a product in an existing category (product:create)
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string,price=number,stock_quantity=int,category_id=string} true "Product data"
// @Success 201 {object} object{success=bool,message=string,data=dto.ProductDTO}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products [post]
func (h *ProductHandler) CreateProductDoc() {}

// GetProduct godoc
// @Summary Get product by ID
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} object{success=bool,data=dto.ProductDTO}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProductDoc() {}

// UpdateProduct godoc
// @Summary Update product
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body object{name=string,description=string,price=number,category_id=string} true "Product data"
// @Success 200 {object} object{success=bool,message=string,data=dto.ProductDTO}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/v1/products/{id} [put]
func (h *ProductHandler) UpdateProductDoc() {}

// DeleteProduct godoc
// @Summary Delete product
// @Tags Products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) DeleteProductDoc() {}

// UpdateStock godoc
// @Summary Set stock quantity
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body object{quantity=int} true "New quantity"
// @Success 200 {object} object{success=bool,message=string,data=dto.ProductDTO}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products/{id}/stock [patch]
func (h *ProductHandler) UpdateStockDoc() {}

// AdjustStock godoc
// @Summary Adjust stock quantity by a delta
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body object{delta=int} true "Signed delta"
// @Success 200 {object} object{success=bool,message=string,data=dto.ProductDTO}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/v1/products/{id}/stock/adjust [patch]
func (h *ProductHandler) AdjustStockDoc() {}

// BulkUpdateStock godoc
// @Summary Set stock for several products
// @Description Entries are applied one by one. A partially applied batch answers 207.
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{items=[]object{product_id=string,quantity=int}} true "Stock entries"
// @Success 200 {object} object{success=bool,data=dto.BulkStockResult}
// @Success 207 {object} object{success=bool,data=dto.BulkStockResult}
// @Router /api/v1/products/stock/bulk [patch]
func (h *ProductHandler) BulkUpdateStockDoc() {}

// GetAllProducts godoc
// @Summary List every product
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=[]dto.ProductDTO}
// @Router /api/v1/products/all [get]
func (h *ProductHandler) GetAllProductsDoc() {}

// SearchProducts godoc
// @Summary Search products by name
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param term query string true "Search term"
// @Success 200 {object} object{success=bool,data=[]dto.ProductDTO}
// @Router /api/v1/products/search [get]
func (h *ProductHandler) SearchProductsDoc() {}

// GetLowStock godoc
// @Summary Products below a stock threshold
// @Tags Stock
// @Security BearerAuth
// @Produce json
// @Param threshold query int false "Threshold (default 10)"
// @Success 200 {object} object{success=bool,data=[]dto.ProductDTO}
// @Router /api/v1/products/low-stock [get]
func (h *ProductHandler) GetLowStockDoc() {}

// GetProductsByCategory godoc
// @Summary Products of a category
// @Tags Products
// @Security BearerAuth
// @Produce json
// @Param categoryId path string true "Category ID"
// @Success 200 {object} object{success=bool,data=[]dto.ProductDTO}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/v1/products/category/{categoryId} [get]
func (h *ProductHandler) GetProductsByCategoryDoc() {}

// ListCategories godoc
// @Summary List categories
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=[]dto.CategoryDTO}
// @Router /api/categories [get]
func (h *CategoryHandler) ListCategoriesDoc() {}

// CreateCategory godoc
// @Summary Create category
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string} true "Category data"
// @Success 201 {object} object{success=bool,message=string,data=dto.CategoryDTO}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/categories [post]
func (h *CategoryHandler) CreateCategoryDoc() {}

// GetCategory godoc
// @Summary Get category by ID
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} object{success=bool,data=dto.CategoryDTO}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/categories/{id} [get]
func (h *CategoryHandler) GetCategoryDoc() {}

// UpdateCategory godoc
// @Summary Update category
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body object{name=string,description=string} true "Category data"
// @Success 200 {object} object{success=bool,message=string,data=dto.CategoryDTO}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/categories/{id} [put]
func (h *CategoryHandler) UpdateCategoryDoc() {}

// DeleteCategory godoc
// @Summary Delete category
// @Description Fails with 409 while products reference the category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategoryDoc() {}

// ActivateCategory godoc
// @Summary Activate category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} object{success=bool,data=dto.CategoryDTO}
// @Router /api/categories/{id}/activate [post]
func (h *CategoryHandler) ActivateCategoryDoc() {}

// DeactivateCategory godoc
// @Summary Deactivate category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} object{success=bool,data=dto.CategoryDTO}
// @Router /api/categories/{id}/deactivate [post]
func (h *CategoryHandler) DeactivateCategoryDoc() {}

// GetCategoryStats godoc
// @Summary Per-category statistics
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=[]dto.CategoryStats}
// @Router /api/categories/stats [get]
func (h *CategoryHandler) GetStatsDoc() {}

// GetDashboard godoc
// @Summary Catalog dashboard
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=dto.DashboardData}
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboardDoc() {}
