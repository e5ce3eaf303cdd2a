package domain

import "time"

// MessageKind distinguishes user-authored chat messages from
// server-generated notes.
type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageSystem MessageKind = "system"
)

// Message is one entry in a task's chat thread. Messages are append-only;
// they are never updated or deleted.
type Message struct {
	ID        int64       `json:"id"`
	TaskID    int64       `json:"taskId"`
	UserID    int64       `json:"userId"`
	UserName  string      `json:"userName"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageKind `json:"type"`
}
