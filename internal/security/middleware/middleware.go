package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/taskhub/internal/security/audit"
	"github.com/yourorg/taskhub/internal/security/auth"
	"github.com/yourorg/taskhub/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// publicPath reports whether a path never requires a session token:
// health probes, metrics, the realtime socket, login itself and
// registration.
func publicPath(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics", "/ws", "/api/login":
		return true
	}
	if r.URL.Path == "/api/users" && r.Method == http.MethodPost {
		return true
	}
	return false
}

// JWTMiddleware attaches session claims to the request context. When
// required is false a missing or bad token is ignored and the request
// proceeds anonymously; when true, mutating endpoints answer 401.
func JWTMiddleware(tm *auth.TokenManager, required bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if required {
					http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				if required {
					http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				if required {
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits requests per client IP. Login gets a much
// tighter budget than the rest of the API.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" ||
				r.URL.Path == "/metrics" || r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)

			if r.URL.Path == "/api/login" {
				if !limiter.AllowStrict(ip, 10, time.Minute) {
					log.Warn("login rate limit exceeded", slog.String("client_ip", ip))
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(ip) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every collection mutation before it runs.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			actor := ""
			if claims, ok := GetClaimsFromContext(r.Context()); ok {
				actor = claims.Email
			}

			switch {
			case r.URL.Path == "/api/users" && r.Method == http.MethodPost:
				auditLog.LogAction(r.Context(), actor, "register", "user", "", "initiated", "")
			case r.URL.Path == "/api/tasks" && r.Method == http.MethodPost:
				auditLog.LogAction(r.Context(), actor, "create", "task", "", "initiated", "")
			case strings.HasPrefix(r.URL.Path, "/api/tasks/") && r.Method == http.MethodPut:
				auditLog.LogAction(r.Context(), actor, "update", "task", r.PathValue("id"), "initiated", "")
			case strings.HasPrefix(r.URL.Path, "/api/tasks/") && r.Method == http.MethodDelete:
				auditLog.LogAction(r.Context(), actor, "delete", "task", r.PathValue("id"), "initiated", "")
			case r.URL.Path == "/api/messages" && r.Method == http.MethodPost:
				auditLog.LogAction(r.Context(), actor, "create", "message", "", "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the originating address, preferring the first
// X-Forwarded-For hop when a proxy set one.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims), true
	}
	return nil, false
}
