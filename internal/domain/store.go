package domain

import "context"

// Collection names the three record sets the store holds.
type Collection string

const (
	CollectionUsers    Collection = "users"
	CollectionTasks    Collection = "tasks"
	CollectionMessages Collection = "messages"
)

// Store is the durable holder of the three collections. Every mutation is
// expressed as "read full collection, compute new full collection, replace";
// implementations must serialize each read-modify-write pair per collection
// so concurrent updates cannot lose writes.
//
// Reads are fail-open: a store whose backing medium is unreadable returns an
// empty collection rather than an error, and callers must tolerate an empty
// initial state. Write failures are returned to the caller.
type Store interface {
	Users(ctx context.Context) ([]User, error)
	Tasks(ctx context.Context) ([]Task, error)
	Messages(ctx context.Context) ([]Message, error)

	// UpdateUsers applies fn to the current users collection under the
	// collection lock and persists the result. The new full collection is
	// returned. If fn returns an error nothing is written.
	UpdateUsers(ctx context.Context, fn func([]User) ([]User, error)) ([]User, error)
	UpdateTasks(ctx context.Context, fn func([]Task) ([]Task, error)) ([]Task, error)
	UpdateMessages(ctx context.Context, fn func([]Message) ([]Message, error)) ([]Message, error)

	// Ping checks that the backing medium is reachable and writable.
	Ping(ctx context.Context) error
	Close() error
}

// Broadcaster pushes a full collection to every connected client after a
// successful mutation. Delivery is fire-and-forget: no acknowledgment, no
// retry, and a disconnected client simply misses the update.
type Broadcaster interface {
	BroadcastUsers(users []User)
	BroadcastTasks(tasks []Task)
	BroadcastMessages(messages []Message)
}
