package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// sendBuffer bounds the per-session outbound queue.
	sendBuffer = 64

	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// Session is one connected WebSocket client.
type Session struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu        sync.Mutex
	name      string
	closeOnce sync.Once
}

// identifyPayload is what a client sends to associate its session with a
// logged-in user for presence tracking.
type identifyPayload struct {
	Name string `json:"name"`
}

// Attach wraps an upgraded connection in a session, registers it with the
// hub and starts its read and write pumps. It blocks until the connection
// closes.
func (h *Hub) Attach(conn *websocket.Conn) {
	s := &Session{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register(s)

	go s.writePump()
	s.readPump()
}

func (s *Session) userName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		s.conn.Close()
	})
}

// writePump drains the outbound queue and keeps the connection alive with
// periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout))
		}
	}
}

// readPump consumes inbound frames until the connection drops. The only
// client-to-server frame is "identify", which ties the session to a user
// name for the online list.
func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.hub.logger.Debug("websocket read error",
					slog.String("session_id", s.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event != "identify" {
			continue
		}
		var payload identifyPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			continue
		}
		s.mu.Lock()
		s.name = payload.Name
		s.mu.Unlock()
		s.hub.broadcastOnline()
	}
}
