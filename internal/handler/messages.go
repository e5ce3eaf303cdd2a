package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/service"
)

// MessagesHandler serves the messages collection.
type MessagesHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(messages *service.MessageService, logger *slog.Logger) *MessagesHandler {
	return &MessagesHandler{
		messages: messages,
		logger:   logger,
	}
}

// List handles GET /api/messages requests. An optional ?task={id}
// query narrows the result to one task's thread.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		msgs []domain.Message
		err  error
	)
	if raw := r.URL.Query().Get("task"); raw != "" {
		taskID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			http.Error(w, `{"error":"invalid task id"}`, http.StatusBadRequest)
			return
		}
		msgs, err = h.messages.ForTask(r.Context(), taskID)
	} else {
		msgs, err = h.messages.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list messages", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to list messages"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(msgs)
}

// Create handles POST /api/messages requests.
func (h *MessagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.Error("failed to decode message", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	created, err := h.messages.Create(r.Context(), msg)
	if err != nil {
		h.logger.Error("failed to create message", slog.String("error", err.Error()))
		http.Error(w, `{"error":"failed to create message"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
