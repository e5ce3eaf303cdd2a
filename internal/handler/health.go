package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store  domain.Store
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store domain.Store, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		store:  store,
		logger: logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health - Simple liveness check
// Returns 200 if the server is running
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// Ready handles GET /ready - Readiness check for Kubernetes
// Returns 200 only if the store is reachable
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)

	storeOK := false
	if err := h.store.Ping(ctx); err == nil {
		checks["store"] = "ok"
		storeOK = true
	} else {
		checks["store"] = "error: " + err.Error()
	}

	status := "ready"
	statusCode := http.StatusOK
	if !storeOK {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadinessResponse{
		Status: status,
		Checks: checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)

	h.logger.Info("readiness check",
		slog.String("status", status),
		slog.String("store", checks["store"]),
	)
}
