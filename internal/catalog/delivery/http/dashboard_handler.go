package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	"github.com/tair/product-catalog/pkg/authz"
)

// DashboardHandler serves the aggregated catalog dashboard
type DashboardHandler struct {
	dashboard *query.GetDashboardHandler
	guard     *Guard
}

func NewDashboardHandler(dashboard *query.GetDashboardHandler, guard *Guard) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, guard: guard}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	const path = "/api/v1/dashboard"
	router.HandleFunc(path, metricsMiddleware(path, h.guard.Require(authz.ReportView, h.GetDashboard))).Methods(http.MethodGet)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.Handle(r.Context())
	if err != nil {
		respondFailure(r.Context(), w, err, "Build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// RegisterHealthCheck registers the health check endpoint. Every named check must pass.
func RegisterHealthCheck(router *mux.Router, checks map[string]HealthCheck) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Dependency unavailable",
				Data:    failed,
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Catalog service is healthy",
		})
	}).Methods(http.MethodGet)
}
