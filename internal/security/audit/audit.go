package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogAction records one collection mutation attempt. The actor is the
// session email when known, empty for anonymous requests.
func (al *Logger) LogAction(ctx context.Context, actor, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor", actor),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRegistration(ctx context.Context, actor, email, status, details string) {
	al.LogAction(ctx, actor, "register", "user", email, status, details)
}

func (al *Logger) LogTaskMutation(ctx context.Context, actor, action, taskID, status, details string) {
	al.LogAction(ctx, actor, action, "task", taskID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, actor, reason string) {
	al.LogAction(ctx, actor, "access_denied", "api", "", "denied", reason)
}
