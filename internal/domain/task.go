package domain

import "time"

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// DueDateLayout is the calendar-date format used for Task.DueDate.
const DueDateLayout = "2006-01-02"

// Task represents a unit of work assigned to a user. AssignedToID must
// reference an existing user when the task is created; if that user is later
// deleted the reference is left dangling.
type Task struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	AssignedTo   string    `json:"assignedTo"`
	AssignedToID int64     `json:"assignedToId"`
	CreatedBy    string    `json:"createdBy"`
	CreatedByID  int64     `json:"createdById"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`
	DueDate      string    `json:"dueDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Overdue reports whether the task's due date has passed as of now and the
// task is not completed. A malformed or empty due date is never overdue.
func (t Task) Overdue(now time.Time) bool {
	if t.Status == StatusCompleted || t.DueDate == "" {
		return false
	}
	due, err := time.Parse(DueDateLayout, t.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now.Truncate(24 * time.Hour))
}

// TaskUpdate is a partial update applied to an existing task. Only non-nil
// fields are written; everything else is retained verbatim. Identity and
// provenance fields (ID, CreatedBy, CreatedByID, CreatedAt) are not
// updatable.
type TaskUpdate struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	AssignedTo   *string   `json:"assignedTo,omitempty"`
	AssignedToID *int64    `json:"assignedToId,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	Status       *Status   `json:"status,omitempty"`
	DueDate      *string   `json:"dueDate,omitempty"`
}

// Merge returns a copy of t with the supplied fields of u applied.
func (t Task) Merge(u TaskUpdate) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.AssignedTo != nil {
		t.AssignedTo = *u.AssignedTo
	}
	if u.AssignedToID != nil {
		t.AssignedToID = *u.AssignedToID
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	return t
}
