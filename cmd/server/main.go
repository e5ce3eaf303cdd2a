package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/featureflags"
	"github.com/yourorg/taskhub/internal/handler"
	"github.com/yourorg/taskhub/internal/hub"
	"github.com/yourorg/taskhub/internal/infrastructure/logger"
	"github.com/yourorg/taskhub/internal/infrastructure/redis"
	"github.com/yourorg/taskhub/internal/observability/metrics"
	"github.com/yourorg/taskhub/internal/observability/tracing"
	"github.com/yourorg/taskhub/internal/security/audit"
	"github.com/yourorg/taskhub/internal/security/auth"
	"github.com/yourorg/taskhub/internal/security/middleware"
	"github.com/yourorg/taskhub/internal/security/ratelimit"
	"github.com/yourorg/taskhub/internal/service"
	"github.com/yourorg/taskhub/internal/store/jsonstore"
	"github.com/yourorg/taskhub/internal/store/pgstore"
	"github.com/yourorg/taskhub/internal/store/redisstore"
	"github.com/yourorg/taskhub/internal/worker"
	"github.com/yourorg/taskhub/pkg/config"
	"github.com/yourorg/taskhub/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.New(cfg.LogLevel)
	log.Info("starting taskhub server",
		slog.String("environment", cfg.Environment),
		slog.String("store_backend", cfg.StoreBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "taskhub", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// 4. Initialize the store backend
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// 5. Initialize the realtime hub
	broadcastHub := hub.New(log)

	// 6. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "taskhub")
	userService := service.NewUserService(store, broadcastHub, tokenManager, log)
	messageService := service.NewMessageService(store, broadcastHub, log)
	taskService := service.NewTaskService(store, broadcastHub, messageService, log)

	if featureflags.Enabled(featureflags.SeedDemoData) {
		seedDemoData(ctx, log, userService, taskService)
	}

	// 7. Initialize handlers
	usersHandler := handler.NewUsersHandler(userService, log)
	tasksHandler := handler.NewTasksHandler(taskService, log)
	messagesHandler := handler.NewMessagesHandler(messageService, log)
	loginHandler := handler.NewLoginHandler(userService, log)
	statsHandler := handler.NewStatsHandler(taskService, broadcastHub, log)
	healthHandler := handler.NewHealthHandler(store, log)
	wsHandler := handler.NewWSHandler(broadcastHub, log, cfg.CORSAllowedOrigins)

	// 7a. Initialize security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	// 8. Setup HTTP routes
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
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> JWT -> audit -> rate limit -> metrics -> CORS
	rootHandler := withRequestID(
		middleware.JWTMiddleware(tokenManager, cfg.AuthRequired, log)(
			middleware.AuditMiddleware(auditLogger)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.ValidateJSONContentType(log)(
						metrics.HTTPMetricsMiddleware(handlerWithCORS),
					),
				),
			),
		),
		log,
	)

	// 9. Start the overdue scanner in the background
	overdueScanner := worker.NewOverdueScanner(
		taskService,
		messageService,
		log,
		time.Duration(cfg.OverdueScanMinutes)*time.Minute,
	)
	go overdueScanner.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("auth_required", cfg.AuthRequired),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop the overdue scanner
	rateLimiter.Stop()
	log.Info("server stopped")
}

// openStore builds the configured store backend. All three backends
// share the read-full/replace-full contract.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisstore.New(client, log), nil

	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDatabase,
			SSLMode:  cfg.PostgresSSLMode,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return pgstore.New(ctx, pool, log)

	default:
		return jsonstore.New(cfg.DataDir, log)
	}
}

// seedDemoData populates an empty store with a few sample records so a
// fresh install has something to show.
func seedDemoData(ctx context.Context, log *slog.Logger, users *service.UserService, tasks *service.TaskService) {
	existing, err := users.List(ctx)
	if err != nil || len(existing) > 0 {
		return
	}

	demoUsers := []domain.User{
		{Name: "Sarah Johnson", Email: "sarah@example.com", Password: "password123", Role: domain.RoleManager},
		{Name: "John Smith", Email: "john@example.com", Password: "password123", Role: domain.RoleEmployee},
	}
	created := make([]domain.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		cu, err := users.Register(ctx, u)
		if err != nil {
			log.Warn("failed to seed user", slog.String("email", u.Email), slog.String("error", err.Error()))
			continue
		}
		created = append(created, cu)
	}
	if len(created) < 2 {
		return
	}

	demoTasks := []domain.Task{
		{
			Title:        "Prepare quarterly report",
			Description:  "Collect numbers from all teams",
			AssignedTo:   created[1].Name,
			AssignedToID: created[1].ID,
			CreatedBy:    created[0].Name,
			CreatedByID:  created[0].ID,
			Priority:     domain.PriorityHigh,
			DueDate:      time.Now().AddDate(0, 0, 7).Format(domain.DueDateLayout),
		},
		{
			Title:        "Update onboarding docs",
			Description:  "New starter checklist is out of date",
			AssignedTo:   created[0].Name,
			AssignedToID: created[0].ID,
			CreatedBy:    created[0].Name,
			CreatedByID:  created[0].ID,
			Priority:     domain.PriorityLow,
			DueDate:      time.Now().AddDate(0, 0, 30).Format(domain.DueDateLayout),
		},
	}
	for _, t := range demoTasks {
		if _, err := tasks.Create(ctx, t); err != nil {
			log.Warn("failed to seed task", slog.String("title", t.Title), slog.String("error", err.Error()))
		}
	}
	log.Info("seeded demo data", slog.Int("users", len(created)), slog.Int("tasks", len(demoTasks)))
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
