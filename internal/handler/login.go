package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/service"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse contains the authenticated user and a session token
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

// LoginHandler handles user authentication
type LoginHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(users *service.UserService, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		users:  users,
		logger: logger,
	}
}

// ServeHTTP handles POST /api/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.Warn("authentication failed", slog.String("email", req.Email))
			// Generic error to prevent user enumeration
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", string(user.Role)),
	)

	response := LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(service.SessionTTL),
		User:      user,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
