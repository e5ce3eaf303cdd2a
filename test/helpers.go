package test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourorg/taskhub/internal/handler"
	"github.com/yourorg/taskhub/internal/hub"
	"github.com/yourorg/taskhub/internal/security/auth"
	"github.com/yourorg/taskhub/internal/service"
	"github.com/yourorg/taskhub/internal/store/jsonstore"
)

// TestServerHelper runs the full HTTP surface against a flat-file
// store in a temp dir, with the realtime hub wired in.
type TestServerHelper struct {
	Server *httptest.Server
	Logger *slog.Logger
	Hub    *hub.Hub
}

func NewTestServer(t *testing.T) *TestServerHelper {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("jsonstore: %v", err)
	}

	broadcastHub := hub.New(logger)
	tokenManager := auth.NewTokenManager("integration-test-secret", "taskhub")
	userService := service.NewUserService(store, broadcastHub, tokenManager, logger)
	messageService := service.NewMessageService(store, broadcastHub, logger)
	taskService := service.NewTaskService(store, broadcastHub, messageService, logger)

	usersHandler := handler.NewUsersHandler(userService, logger)
	tasksHandler := handler.NewTasksHandler(taskService, logger)
	messagesHandler := handler.NewMessagesHandler(messageService, logger)
	loginHandler := handler.NewLoginHandler(userService, logger)
	statsHandler := handler.NewStatsHandler(taskService, broadcastHub, logger)
	healthHandler := handler.NewHealthHandler(store, logger)
	wsHandler := handler.NewWSHandler(broadcastHub, logger, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", usersHandler.List)
	mux.HandleFunc("POST /api/users", usersHandler.Create)
	mux.HandleFunc("GET /api/tasks", tasksHandler.List)
	mux.HandleFunc("POST /api/tasks", tasksHandler.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", tasksHandler.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", tasksHandler.Delete)
	mux.HandleFunc("GET /api/messages", messagesHandler.List)
	mux.HandleFunc("POST /api/messages", messagesHandler.Create)
	mux.Handle("POST /api/login", loginHandler)
	mux.Handle("GET /api/stats", statsHandler)
	mux.Handle("GET /ws", wsHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestServerHelper{
		Server: server,
		Logger: logger,
		Hub:    broadcastHub,
	}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// WebSocketURL rewrites the test server URL for a websocket dial.
func (h *TestServerHelper) WebSocketURL() string {
	return strings.Replace(h.Server.URL, "http://", "ws://", 1) + "/ws"
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
