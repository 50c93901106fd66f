// Package handlers contains the REST request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"composekit/internal/service/user"
	apperrors "composekit/pkg/errors"
)

// UserService is the slice of the user service the handlers need.
type UserService interface {
	Create(ctx context.Context, input user.CreateInput) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*user.User, error)
}

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input user.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /users/{userID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// Delete handles DELETE /users/{userID}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// writeServiceError maps service error kinds to HTTP status codes.
func (h *UserHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case apperrors.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
