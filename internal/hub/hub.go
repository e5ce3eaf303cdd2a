// Package hub implements the server-side publish mechanism: after every
// successful mutation the full updated collection is pushed to all connected
// WebSocket sessions. Delivery is best-effort while connected; there are no
// acknowledgments, retries or sequence numbers, and a client that misses a
// broadcast recovers via its next bulk fetch.
package hub

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/observability/metrics"
)

// Event names carried in the envelope of every push frame.
const (
	EventUsers    = "updateUsers"
	EventTasks    = "updateTasks"
	EventMessages = "updateMessages"
	EventOnline   = "updateOnline"
)

// Envelope frames every message crossing the WebSocket in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks connected sessions and fans collection updates out to them.
// Each session has its own buffered outbound queue so one slow client never
// blocks the others; a session whose queue overflows is dropped.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	metrics.ClientConnected()
	h.logger.Debug("client connected", slog.String("session_id", s.id))
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	_, present := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()
	if !present {
		return
	}
	metrics.ClientDisconnected()
	h.logger.Debug("client disconnected", slog.String("session_id", s.id))
	h.broadcastOnline()
}

// broadcast marshals the payload once and queues it on every session.
// Sessions that cannot keep up are disconnected rather than blocking the
// sender.
func (h *Hub) broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to frame broadcast",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	var slow []*Session
	h.mu.RLock()
	for _, s := range h.sessions {
		select {
		case s.send <- frame:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("dropping slow client", slog.String("session_id", s.id))
		metrics.ObserveSlowClientDrop()
		// Unregister before closing the send channel so no concurrent
		// broadcast can write to it.
		h.unregister(s)
		s.close()
	}

	metrics.ObserveBroadcast(event)
}

// BroadcastUsers pushes the full users collection to every session.
func (h *Hub) BroadcastUsers(users []domain.User) {
	h.broadcast(EventUsers, users)
}

// BroadcastTasks pushes the full tasks collection to every session.
func (h *Hub) BroadcastTasks(tasks []domain.Task) {
	h.broadcast(EventTasks, tasks)
}

// BroadcastMessages pushes the full messages collection to every session.
func (h *Hub) BroadcastMessages(messages []domain.Message) {
	h.broadcast(EventMessages, messages)
}

// Online returns the sorted, de-duplicated names of users whose sessions
// have identified themselves.
func (h *Hub) Online() []string {
	h.mu.RLock()
	seen := make(map[string]struct{})
	for _, s := range h.sessions {
		if name := s.userName(); name != "" {
			seen[name] = struct{}{}
		}
	}
	h.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) broadcastOnline() {
	h.broadcast(EventOnline, h.Online())
}

// ConnectedCount returns the number of live sessions.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
