package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	"github.com/tair/product-catalog/pkg/authz"
)

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	createHandler    *command.CreateCategoryHandler
	updateHandler    *command.UpdateCategoryHandler
	deleteHandler    *command.DeleteCategoryHandler
	setActiveHandler *command.SetCategoryActiveHandler

	getHandler   *query.GetCategoryHandler
	listHandler  *query.ListCategoriesHandler
	statsHandler *query.GetCategoryStatsHandler

	guard *Guard
}

func NewCategoryHandler(
	createHandler *command.CreateCategoryHandler,
	updateHandler *command.UpdateCategoryHandler,
	deleteHandler *command.DeleteCategoryHandler,
	setActiveHandler *command.SetCategoryActiveHandler,
	getHandler *query.GetCategoryHandler,
	listHandler *query.ListCategoriesHandler,
	statsHandler *query.GetCategoryStatsHandler,
	guard *Guard,
) *CategoryHandler {
	return &CategoryHandler{
		createHandler:    createHandler,
		updateHandler:    updateHandler,
		deleteHandler:    deleteHandler,
		setActiveHandler: setActiveHandler,
		getHandler:       getHandler,
		listHandler:      listHandler,
		statsHandler:     statsHandler,
		guard:            guard,
	}
}

func (h *CategoryHandler) RegisterRoutes(router *mux.Router) {
	const (
		base       = "/api/categories"
		stats      = base + "/stats"
		byID       = base + "/{id}"
		activate   = byID + "/activate"
		deactivate = byID + "/deactivate"
	)

	route := func(path string, perm authz.Permission, fn http.HandlerFunc, method string) {
		router.HandleFunc(path, metricsMiddleware(path, h.guard.Require(perm, fn))).Methods(method)
	}

	route(stats, authz.ReportView, h.GetStats, http.MethodGet)
	route(base, authz.CategoryRead, h.ListCategories, http.MethodGet)
	route(base, authz.CategoryCreate, h.CreateCategory, http.MethodPost)
	route(byID, authz.CategoryRead, h.GetCategory, http.MethodGet)
	route(byID, authz.CategoryUpdate, h.UpdateCategory, http.MethodPut)
	route(byID, authz.CategoryDelete, h.DeleteCategory, http.MethodDelete)
	route(activate, authz.CategoryUpdate, h.setActive(true), http.MethodPost)
	route(deactivate, authz.CategoryUpdate, h.setActive(false), http.MethodPost)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CreateCategory handles POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.createHandler.Handle(r.Context(), command.CreateCategoryCommand{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Create category")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Category created successfully",
		Data:    category,
	})
}

// ListCategories handles GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.listHandler.Handle(r.Context())
	if err != nil {
		respondFailure(r.Context(), w, err, "List categories")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: categories})
}

// GetCategory handles GET /api/categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.getHandler.Handle(r.Context(), query.GetCategoryQuery{ID: mux.Vars(r)["id"]})
	if err != nil {
		respondFailure(r.Context(), w, err, "Get category")
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: category})
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.updateHandler.Handle(r.Context(), command.UpdateCategoryCommand{
		ID:          mux.Vars(r)["id"],
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondFailure(r.Context(), w, err, "Update category")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Category updated successfully",
		Data:    category,
	})
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.deleteHandler.Handle(r.Context(), command.DeleteCategoryCommand{ID: mux.Vars(r)["id"]}); err != nil {
		respondFailure(r.Context(), w, err, "Delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setActive handles POST /api/categories/{id}/activate and /deactivate
func (h *CategoryHandler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := h.setActiveHandler.Handle(r.Context(), command.SetCategoryActiveCommand{
			ID:     mux.Vars(r)["id"],
			Active: active,
		})
		if err != nil {
			respondFailure(r.Context(), w, err, "Change category state")
			return
		}

		respondJSON(w, http.StatusOK, Response{Success: true, Data: category})
	}
}

// GetStats handles GET /api/categories/stats
func (h *CategoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsHandler.Handle(r.Context())
	if err != nil {
		respondFailure(r.Context(), w, err, "Get category statistics")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}
