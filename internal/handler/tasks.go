package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/security/middleware"
	"github.com/yourorg/taskhub/internal/service"
)

// TasksHandler serves the tasks collection.
type TasksHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(tasks *service.TaskService, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{
		tasks:  tasks,
		logger: logger,
	}
}

// List handles GET /api/tasks requests.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to list tasks"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tasks)
}

// Create handles POST /api/tasks requests.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var task domain.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		h.logger.Error("failed to decode task", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	created, err := h.tasks.Create(r.Context(), task)
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownAssignee):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to create task", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to create task"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// updateRequest is a partial task plus the display name of whoever is
// making the change, used for the system note on status changes.
type updateRequest struct {
	domain.TaskUpdate
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// Update handles PUT /api/tasks/{id} requests.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode task update", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	actor := req.UpdatedBy
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		actor = claims.Name
	}

	updated, err := h.tasks.Update(r.Context(), id, req.TaskUpdate, actor)
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		http.Error(w, `{"error":"Task not found"}`, http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("failed to update task",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, `{"error":"failed to update task"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// Delete handles DELETE /api/tasks/{id} requests. Deletion is
// idempotent: an unknown id still answers 200.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete task",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, `{"error":"failed to delete task"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Task deleted"})
}
