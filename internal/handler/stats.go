package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/taskhub/internal/hub"
	"github.com/yourorg/taskhub/internal/service"
)

// StatsResponse is the dashboard summary: task counts plus who is online.
type StatsResponse struct {
	Tasks  service.Stats `json:"tasks"`
	Online []string      `json:"online"`
}

// StatsHandler serves the dashboard stats.
type StatsHandler struct {
	tasks  *service.TaskService
	hub    *hub.Hub
	logger *slog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(tasks *service.TaskService, h *hub.Hub, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		tasks:  tasks,
		hub:    h,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/stats requests.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tasks.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to compute stats"}`, http.StatusInternalServerError)
		return
	}

	response := StatsResponse{
		Tasks:  stats,
		Online: h.hub.Online(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
