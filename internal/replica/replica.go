// Package replica keeps a client-side copy of the server's collections,
// refreshed wholesale by push events. Clients never mutate the copy
// directly; they issue mutations over HTTP and wait for the resulting
// broadcast.
package replica

import (
	"log/slog"
	"sync"

	"github.com/yourorg/taskhub/internal/domain"
)

// State is the session state of the replica's owner.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// Replica mirrors the three server collections plus presence. All
// methods are safe for concurrent use; the WebSocket listener feeds
// Set* while the UI reads.
type Replica struct {
	mu     sync.RWMutex
	logger *slog.Logger

	users    []domain.User
	tasks    []domain.Task
	messages []domain.Message
	online   []string

	state State
	email string

	// openTaskID is the task whose detail view is open, 0 for none.
	openTaskID int64
}

// New creates an empty, unauthenticated replica.
func New(logger *slog.Logger) *Replica {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replica{logger: logger}
}

// Login marks the replica authenticated as the given user. Call it
// only after the server has accepted the credentials.
func (r *Replica) Login(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Authenticated
	r.email = user.Email
}

// Logout drops the session.
func (r *Replica) Logout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Unauthenticated
	r.email = ""
	r.openTaskID = 0
}

// State returns the current session state.
func (r *Replica) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Email returns the authenticated user's email, empty when logged out.
func (r *Replica) Email() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.email
}

// SetUsers replaces the users collection. If the authenticated user's
// record is gone from the new collection the session is force-logged
// out: the account no longer exists.
func (r *Replica) SetUsers(users []domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = users

	if r.state != Authenticated {
		return
	}
	for _, u := range users {
		if u.Email == r.email {
			return
		}
	}
	r.logger.Warn("account removed, logging out", slog.String("email", r.email))
	r.state = Unauthenticated
	r.email = ""
	r.openTaskID = 0
}

// SetTasks replaces the tasks collection. If the open task was deleted
// the detail view is closed rather than left showing stale data.
func (r *Replica) SetTasks(tasks []domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = tasks

	if r.openTaskID == 0 {
		return
	}
	for _, t := range tasks {
		if t.ID == r.openTaskID {
			return
		}
	}
	r.logger.Info("open task deleted, closing view", slog.Int64("task_id", r.openTaskID))
	r.openTaskID = 0
}

// SetMessages replaces the messages collection.
func (r *Replica) SetMessages(messages []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = messages
}

// SetOnline replaces the presence list.
func (r *Replica) SetOnline(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = names
}

// Users returns a copy of the users collection.
func (r *Replica) Users() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out
}

// Tasks returns a copy of the tasks collection.
func (r *Replica) Tasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Messages returns a copy of the messages collection.
func (r *Replica) Messages() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Online returns a copy of the presence list.
func (r *Replica) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.online))
	copy(out, r.online)
	return out
}

// OpenTask marks a task's detail view open. Returns false if the task
// is not in the replica.
func (r *Replica) OpenTask(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			r.openTaskID = id
			return true
		}
	}
	return false
}

// CloseTask closes the detail view.
func (r *Replica) CloseTask() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openTaskID = 0
}

// OpenTaskID returns the open task id, 0 when no view is open.
func (r *Replica) OpenTaskID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.openTaskID
}

// VisibleTasks applies the view filter and the default newest-first
// ordering to the replica's tasks.
func (r *Replica) VisibleTasks(status, search string) []domain.Task {
	return NewestFirst(Filter(r.Tasks(), status, search))
}

// TaskMessages returns the open thread for one task in stored order.
func (r *Replica) TaskMessages(taskID int64) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Message, 0)
	for _, m := range r.messages {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}
