package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/dto"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/internal/catalog/repository"
	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	"github.com/tair/product-catalog/pkg/auth"
	"github.com/tair/product-catalog/pkg/authz"
	gateway "github.com/tair/product-catalog/pkg/cache"
)

const testSecret = "handler-test-secret"

func newRouter(t *testing.T, limiter *RateLimiter) *mux.Router {
	t.Helper()
	auth.Configure(testSecret)

	store := repository.NewMemoryStore()
	products, categories := store.Products(), store.Categories()
	cached := cache.NewStore(gateway.Nop{}, cache.DefaultTTL())
	invalidator := cache.NewInvalidator(gateway.Nop{})
	bus := events.NewBus()
	guard := NewGuard(authz.NewEvaluator(), limiter)

	stats := query.NewGetCategoryStatsHandler(products, categories, cached)

	router := mux.NewRouter()
	NewProductHandler(
		command.NewCreateProductHandler(products, categories, invalidator, bus),
		command.NewUpdateProductHandler(products, categories, invalidator, bus),
		command.NewDeleteProductHandler(products, invalidator, bus),
		command.NewUpdateStockHandler(products, categories, invalidator, bus),
		command.NewAdjustStockHandler(products, categories, invalidator, bus),
		command.NewBulkUpdateStockHandler(products, invalidator, bus),
		query.NewGetProductHandler(products, categories, cached),
		query.NewListProductsHandler(products, categories),
		query.NewGetAllProductsHandler(products, categories, cached),
		query.NewSearchProductsHandler(products, categories),
		query.NewGetProductsByCategoryHandler(products, categories),
		query.NewGetLowStockHandler(products, categories, cached),
		products,
		guard,
	).RegisterRoutes(router)

	NewCategoryHandler(
		command.NewCreateCategoryHandler(categories, invalidator, bus),
		command.NewUpdateCategoryHandler(categories, invalidator, bus),
		command.NewDeleteCategoryHandler(categories, invalidator, bus),
		command.NewSetCategoryActiveHandler(categories, invalidator, bus),
		query.NewGetCategoryHandler(categories, cached),
		query.NewListCategoriesHandler(categories, cached),
		stats,
		guard,
	).RegisterRoutes(router)

	NewDashboardHandler(query.NewGetDashboardHandler(products, categories, stats, cached), guard).RegisterRoutes(router)
	return router
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := auth.GenerateToken(auth.Claims{UserID: "u-" + role, Username: role, Role: role}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: undecodable body %q", method, path, rec.Body.String())
		}
	}
	return rec.Code, env
}

func createCategory(t *testing.T, router http.Handler, admin, name string) dto.CategoryDTO {
	t.Helper()
	status, env := do(t, router, http.MethodPost, "/api/categories", admin, map[string]string{"name": name})
	if status != http.StatusCreated {
		t.Fatalf("create category: %d %s", status, env.Error)
	}
	var c dto.CategoryDTO
	if err := json.Unmarshal(env.Data, &c); err != nil {
		t.Fatal(err)
	}
	return c
}

func createProduct(t *testing.T, router http.Handler, admin, name, categoryID string, stock int) dto.ProductDTO {
	t.Helper()
	status, env := do(t, router, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{
		"name": name, "price": "19.99", "stock_quantity": stock, "category_id": categoryID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create product: %d %s", status, env.Error)
	}
	var p dto.ProductDTO
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRoutesRequireAuthentication(t *testing.T) {
	router := newRouter(t, nil)

	status, _ := do(t, router, http.MethodGet, "/api/v1/products", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", status)
	}

	status, _ = do(t, router, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", status)
	}
}

func TestRoutesEnforcePermissions(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")

	cases := []struct {
		role   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"User", http.MethodGet, "/api/v1/products", nil, http.StatusOK},
		{"User", http.MethodPost, "/api/v1/products", map[string]interface{}{"name": "X", "price": 1, "category_id": electronics.ID}, http.StatusForbidden},
		{"StockManager", http.MethodPost, "/api/categories", map[string]string{"name": "Tools"}, http.StatusForbidden},
		{"Reporter", http.MethodGet, "/api/v1/dashboard", nil, http.StatusOK},
		{"User", http.MethodGet, "/api/categories/stats", nil, http.StatusForbidden},
		{"ProductManager", http.MethodPost, "/api/v1/products", map[string]interface{}{"name": "Y", "price": 2, "category_id": electronics.ID}, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			if status, env := do(t, router, tc.method, tc.path, token(t, tc.role), tc.body); status != tc.want {
				t.Fatalf("got %d (%s), want %d", status, env.Error, tc.want)
			}
		})
	}
}

func TestProductLifecycle(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")

	electronics := createCategory(t, router, admin, "Electronics")
	widget := createProduct(t, router, admin, "Widget", electronics.ID, 12)
	if widget.CategoryName != "Electronics" || widget.IsLowStock {
		t.Fatalf("created product = %+v", widget)
	}

	status, env := do(t, router, http.MethodPatch, "/api/v1/products/"+widget.ID+"/stock", admin, map[string]int{"quantity": 8})
	if status != http.StatusOK {
		t.Fatalf("update stock: %d %s", status, env.Error)
	}
	var updated dto.ProductDTO
	json.Unmarshal(env.Data, &updated)
	if updated.StockQuantity != 8 || !updated.IsLowStock {
		t.Fatalf("after stock update = %+v", updated)
	}

	status, env = do(t, router, http.MethodGet, "/api/v1/products/low-stock", admin, nil)
	var low []dto.ProductDTO
	json.Unmarshal(env.Data, &low)
	if status != http.StatusOK || len(low) != 1 || low[0].ID != widget.ID {
		t.Fatalf("low stock: %d %v", status, low)
	}

	status, _ = do(t, router, http.MethodDelete, "/api/v1/products/"+widget.ID, admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	status, _ = do(t, router, http.MethodGet, "/api/v1/products/"+widget.ID, admin, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after delete: %d", status)
	}
	status, _ = do(t, router, http.MethodDelete, "/api/v1/products/"+widget.ID, admin, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete: %d", status)
	}
}

func TestCreateProductRejectsBadInput(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")

	status, env := do(t, router, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{"price": 5, "category_id": electronics.ID})
	if status != http.StatusBadRequest || env.Error != "Validation failed" {
		t.Fatalf("missing name: %d %s", status, env.Error)
	}
	var fields []FieldError
	if err := json.Unmarshal(env.Data, &fields); err != nil || len(fields) != 1 || fields[0].Field != "Name" {
		t.Fatalf("field errors = %v (%v)", fields, err)
	}

	status, _ = do(t, router, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{"name": "Free", "price": 0, "category_id": electronics.ID})
	if status != http.StatusBadRequest {
		t.Fatalf("zero price: %d", status)
	}

	status, _ = do(t, router, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{"name": "Orphan", "price": 5, "category_id": "missing"})
	if status != http.StatusNotFound {
		t.Fatalf("unknown category: %d", status)
	}
}

func TestListProductsPagination(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")
	for i := 0; i < 25; i++ {
		createProduct(t, router, admin, fmt.Sprintf("Item %02d", i), electronics.ID, i)
	}

	status, env := do(t, router, http.MethodGet, "/api/v1/products?pageNumber=3&pageSize=10&sortBy=name", admin, nil)
	var page dto.PagedResult[dto.ProductDTO]
	json.Unmarshal(env.Data, &page)
	if status != http.StatusOK || page.TotalCount != 25 || page.TotalPages != 3 || len(page.Items) != 5 || page.HasNext {
		t.Fatalf("page 3: %d %+v", status, page)
	}

	status, _ = do(t, router, http.MethodGet, "/api/v1/products?pageSize=abc", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad pageSize: %d", status)
	}

	status, _ = do(t, router, http.MethodGet, "/api/v1/products?pageNumber=9223372036854775807&pageSize=10", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("overflowing pageNumber: %d", status)
	}
}

func TestStockEndpointsRejectOutOfRangeQuantities(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")
	widget := createProduct(t, router, admin, "Widget", electronics.ID, 5)

	status, env := do(t, router, http.MethodPatch, "/api/v1/products/"+widget.ID+"/stock/adjust", admin, map[string]int{"delta": math.MaxInt})
	var fields []FieldError
	json.Unmarshal(env.Data, &fields)
	if status != http.StatusBadRequest || len(fields) != 1 || fields[0].Field != "Delta" {
		t.Fatalf("huge delta: %d %v", status, fields)
	}

	status, _ = do(t, router, http.MethodPatch, "/api/v1/products/"+widget.ID+"/stock", admin, map[string]int{"quantity": math.MaxInt})
	if status != http.StatusBadRequest {
		t.Fatalf("huge quantity: %d", status)
	}

	status, env = do(t, router, http.MethodGet, "/api/v1/products/"+widget.ID, admin, nil)
	var got dto.ProductDTO
	json.Unmarshal(env.Data, &got)
	if status != http.StatusOK || got.StockQuantity != 5 {
		t.Fatalf("stock changed: %d %+v", status, got)
	}
}

func TestCategoryDeleteConflict(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")
	createProduct(t, router, admin, "Widget", electronics.ID, 12)

	if status, _ := do(t, router, http.MethodDelete, "/api/categories/"+electronics.ID, admin, nil); status != http.StatusConflict {
		t.Fatalf("delete referenced category: %d", status)
	}

	empty := createCategory(t, router, admin, "Empty")
	if status, _ := do(t, router, http.MethodDelete, "/api/categories/"+empty.ID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("delete empty category: %d", status)
	}

	if status, _ := do(t, router, http.MethodPost, "/api/categories", admin, map[string]string{"name": "electronics"}); status != http.StatusConflict {
		t.Fatalf("duplicate name: %d", status)
	}

	status, env := do(t, router, http.MethodPost, "/api/categories/"+electronics.ID+"/deactivate", admin, nil)
	var c dto.CategoryDTO
	json.Unmarshal(env.Data, &c)
	if status != http.StatusOK || c.IsActive {
		t.Fatalf("deactivate: %d %+v", status, c)
	}
}

func TestBulkStockReportsPartialApplication(t *testing.T) {
	router := newRouter(t, nil)
	admin := token(t, "Admin")
	electronics := createCategory(t, router, admin, "Electronics")
	widget := createProduct(t, router, admin, "Widget", electronics.ID, 12)

	status, env := do(t, router, http.MethodPatch, "/api/v1/products/stock/bulk", token(t, "StockManager"), map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": widget.ID, "quantity": 3},
			{"product_id": "zzzz-missing", "quantity": 4},
		},
	})
	if status != http.StatusMultiStatus {
		t.Fatalf("bulk: %d %s", status, env.Error)
	}
	var result dto.BulkStockResult
	json.Unmarshal(env.Data, &result)
	if len(result.Updated) != 1 || result.Updated[0] != widget.ID || result.Failed["zzzz-missing"] == "" {
		t.Fatalf("result = %+v", result)
	}

	status, _ = do(t, router, http.MethodPatch, "/api/v1/products/stock/bulk", admin, map[string]interface{}{"items": []interface{}{}})
	if status != http.StatusBadRequest {
		t.Fatalf("empty bulk: %d", status)
	}
}

func TestRateLimiterRejectsExcessRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := newRouter(t, NewRateLimiter(client, 2, time.Minute))
	user := token(t, "User")

	for i := 0; i < 2; i++ {
		if status, _ := do(t, router, http.MethodGet, "/api/categories", user, nil); status != http.StatusOK {
			t.Fatalf("request %d: %d", i, status)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("third request: %d remaining=%q", rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
	}

	// Other users have their own window
	if status, _ := do(t, router, http.MethodGet, "/api/categories", token(t, "Reporter"), nil); status != http.StatusOK {
		t.Fatalf("other user: %d", status)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	router := newRouter(t, NewRateLimiter(client, 1, time.Minute))
	if status, _ := do(t, router, http.MethodGet, "/api/categories", token(t, "User"), nil); status != http.StatusOK {
		t.Fatalf("got %d with redis down", status)
	}
}

func TestHealthCheck(t *testing.T) {
	router := mux.NewRouter()
	down := errors.New("connection refused")
	RegisterHealthCheck(router, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return down },
	})

	status, env := do(t, router, http.MethodGet, "/health", "", nil)
	if status != http.StatusServiceUnavailable || env.Success {
		t.Fatalf("health: %d %+v", status, env)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("create: %w", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrConcurrencyConflict, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMiddlewareChainAddsHeaders(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	router.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	cfg := DefaultMiddlewareConfig(time.Second)
	cfg.EnableTracing = false
	RegisterMiddlewares(router, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("headers = %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic: %d", rec.Code)
	}
}
