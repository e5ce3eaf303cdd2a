package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/service"
)

// UsersHandler serves the users collection.
type UsersHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users *service.UserService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		logger: logger,
	}
}

// List handles GET /api/users requests.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(users)
}

// Create handles POST /api/users requests (registration).
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.logger.Error("failed to decode user", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	created, err := h.users.Register(r.Context(), user)
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		http.Error(w, `{"error":"Email already exists"}`, http.StatusConflict)
		return
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to create user", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
