package catalog

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/product-catalog/internal/catalog/cache"
	httpDelivery "github.com/tair/product-catalog/internal/catalog/delivery/http"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/pkg/auth"
	"github.com/tair/product-catalog/pkg/authz"
	gateway "github.com/tair/product-catalog/pkg/cache"
)

func TestInitializeHandlersServesRoutes(t *testing.T) {
	auth.Configure("wiring-secret")
	handlers, err := InitializeHandlers(
		ProvideMemoryRepositories(),
		gateway.Nop{},
		cache.DefaultTTL(),
		events.NewBus(),
		httpDelivery.NewGuard(authz.NewEvaluator(), nil),
	)
	if err != nil {
		t.Fatal(err)
	}
	if handlers.AdjustStock == nil {
		t.Fatal("adjust stock handler not wired")
	}

	router := mux.NewRouter()
	handlers.RegisterRoutes(router)

	token, err := auth.GenerateToken(auth.Claims{UserID: "u-1", Role: "Reporter"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/api/categories", "/api/v1/products", "/api/v1/dashboard"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}
