package hub

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/taskhub/internal/domain"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Attach(conn)
	}))
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads frames until one matching the wanted event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if env.Event == event {
			return env.Data
		}
	}
}

func identify(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"name": name})
	frame, _ := json.Marshal(Envelope{Event: "identify", Data: payload})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("identify: %v", err)
	}
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if h.ConnectedCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connected count = %d, want %d", h.ConnectedCount(), want)
}

func TestBroadcastReachesEverySession(t *testing.T) {
	h, srv := newTestHub(t)

	first := dial(t, srv)
	second := dial(t, srv)
	waitForCount(t, h, 2)

	tasks := []domain.Task{{ID: 1, Title: "Fix login bug", Status: domain.StatusPending}}
	h.BroadcastTasks(tasks)

	for _, conn := range []*websocket.Conn{first, second} {
		data := readEvent(t, conn, EventTasks)
		var got []domain.Task
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Fix login bug" {
			t.Errorf("payload = %+v, want the broadcast task", got)
		}
	}
}

func TestOnlineDeduplicatesAndSorts(t *testing.T) {
	h, srv := newTestHub(t)

	first := dial(t, srv)
	second := dial(t, srv)
	third := dial(t, srv)
	waitForCount(t, h, 3)

	identify(t, first, "Sarah Johnson")
	identify(t, second, "John Smith")
	// Same user connected from a second tab.
	identify(t, third, "Sarah Johnson")

	deadline := time.Now().Add(3 * time.Second)
	for {
		online := h.Online()
		if len(online) == 2 && online[0] == "John Smith" && online[1] == "Sarah Johnson" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("online = %v, want [John Smith Sarah Johnson]", online)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIdentifyPushesOnlineUpdate(t *testing.T) {
	_, srv := newTestHub(t)

	conn := dial(t, srv)
	identify(t, conn, "Sarah Johnson")

	for {
		data := readEvent(t, conn, EventOnline)
		var online []string
		if err := json.Unmarshal(data, &online); err != nil {
			t.Fatalf("decode online list: %v", err)
		}
		if len(online) == 1 && online[0] == "Sarah Johnson" {
			return
		}
	}
}

func TestDisconnectRemovesSession(t *testing.T) {
	h, srv := newTestHub(t)

	conn := dial(t, srv)
	keeper := dial(t, srv)
	waitForCount(t, h, 2)

	identify(t, conn, "Sarah Johnson")
	readEvent(t, keeper, EventOnline)

	conn.Close()
	waitForCount(t, h, 1)

	// The departed user leaves the online list and the survivor hears it.
	for {
		data := readEvent(t, keeper, EventOnline)
		var online []string
		if err := json.Unmarshal(data, &online); err != nil {
			t.Fatalf("decode online list: %v", err)
		}
		if len(online) == 0 {
			return
		}
	}
}

func TestUnknownInboundEventIgnored(t *testing.T) {
	h, srv := newTestHub(t)

	conn := dial(t, srv)
	waitForCount(t, h, 1)

	frame, _ := json.Marshal(Envelope{Event: "nonsense", Data: json.RawMessage(`{"x":1}`)})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Session survives and still receives broadcasts.
	h.BroadcastUsers([]domain.User{{ID: 1, Name: "Sarah Johnson"}})
	readEvent(t, conn, EventUsers)
}
