package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/taskhub/internal/hub"
)

// WSHandler upgrades clients onto the realtime channel.
type WSHandler struct {
	hub            *hub.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(h *hub.Hub, logger *slog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:            h,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *WSHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws requests. The connection stays open until
// the client goes away; every mutation pushes the full collection that
// changed down this socket.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.Attach(conn)
}
