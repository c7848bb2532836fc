package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/pkg/logger"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{Success: false, Error: message})
}

// StatusFor maps a handler error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondFailure writes err as a JSON error. Server errors are logged and their
// details withheld from the client.
func respondFailure(ctx context.Context, w http.ResponseWriter, err error, action string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx).Err(err).Msg(action + " failed")
		respondError(w, status, action+" failed")
		return
	}

	logger.Debug(ctx).Err(err).Int("status", status).Msg(action + " rejected")
	respondError(w, status, err.Error())
}
