package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/hub"
)

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

// StatsResult mirrors the server's stats response.
type StatsResult struct {
	Tasks struct {
		Total      int `json:"total"`
		Pending    int `json:"pending"`
		InProgress int `json:"inProgress"`
		Completed  int `json:"completed"`
		Overdue    int `json:"overdue"`
	} `json:"tasks"`
	Online []string `json:"online"`
}

// Client talks to a taskhub server: plain HTTP for reads and
// mutations, a WebSocket for the push feed. Transport failures are
// returned to the caller as-is; there are no automatic retries, the
// user decides when to try again.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the given server base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// SetToken attaches a session token to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Login authenticates and stores the returned session token on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return LoginResult{}, err
	}
	c.token = result.Token
	return result, nil
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, user domain.User) (domain.User, error) {
	var created domain.User
	err := c.do(ctx, http.MethodPost, "/api/users", user, &created)
	return created, err
}

// Users fetches the full users collection.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, http.MethodGet, "/api/users", nil, &users)
	return users, err
}

// Tasks fetches the full tasks collection.
func (c *Client) Tasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks)
	return tasks, err
}

// Messages fetches the full messages collection.
func (c *Client) Messages(ctx context.Context) ([]domain.Message, error) {
	var msgs []domain.Message
	err := c.do(ctx, http.MethodGet, "/api/messages", nil, &msgs)
	return msgs, err
}

// CreateTask posts a new task.
func (c *Client) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	var created domain.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", task, &created)
	return created, err
}

// UpdateTask applies a partial update to one task. The updatedBy name
// feeds the system note written on status changes.
func (c *Client) UpdateTask(ctx context.Context, id int64, upd domain.TaskUpdate, updatedBy string) (domain.Task, error) {
	body := struct {
		domain.TaskUpdate
		UpdatedBy string `json:"updatedBy,omitempty"`
	}{TaskUpdate: upd, UpdatedBy: updatedBy}

	var updated domain.Task
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), body, &updated)
	return updated, err
}

// DeleteTask removes one task. Deleting an unknown id is not an error.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

// SendMessage posts a chat message.
func (c *Client) SendMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	var created domain.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", msg, &created)
	return created, err
}

// Stats fetches the dashboard summary.
func (c *Client) Stats(ctx context.Context) (StatsResult, error) {
	var stats StatsResult
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats)
	return stats, err
}

// Sync bulk-fetches all three collections into the replica. Clients
// call it once after connecting; afterwards the push feed keeps the
// replica current.
func (c *Client) Sync(ctx context.Context, r *Replica) error {
	users, err := c.Users(ctx)
	if err != nil {
		return fmt.Errorf("sync users: %w", err)
	}
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("sync tasks: %w", err)
	}
	msgs, err := c.Messages(ctx)
	if err != nil {
		return fmt.Errorf("sync messages: %w", err)
	}
	r.SetUsers(users)
	r.SetTasks(tasks)
	r.SetMessages(msgs)
	return nil
}

// Watch connects to the push feed and applies every event to the
// replica until the context is cancelled or the connection drops. The
// identify name ties this session to the online list; pass "" to stay
// anonymous. A dropped connection is returned as an error, not
// retried.
func (c *Client) Watch(ctx context.Context, r *Replica, identifyAs string, onEvent func(event string)) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	if identifyAs != "" {
		payload, _ := json.Marshal(map[string]string{"name": identifyAs})
		frame, _ := json.Marshal(hub.Envelope{Event: "identify", Data: payload})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("identify: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Debug("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}

		switch env.Event {
		case hub.EventUsers:
			var users []domain.User
			if err := json.Unmarshal(env.Data, &users); err == nil {
				r.SetUsers(users)
			}
		case hub.EventTasks:
			var tasks []domain.Task
			if err := json.Unmarshal(env.Data, &tasks); err == nil {
				r.SetTasks(tasks)
			}
		case hub.EventMessages:
			var msgs []domain.Message
			if err := json.Unmarshal(env.Data, &msgs); err == nil {
				r.SetMessages(msgs)
			}
		case hub.EventOnline:
			var names []string
			if err := json.Unmarshal(env.Data, &names); err == nil {
				r.SetOnline(names)
			}
		default:
			continue
		}

		if onEvent != nil {
			onEvent(env.Event)
		}
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}

// apiError is the server's JSON error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
