package domain

import (
	"reflect"
	"testing"
	"time"
)

func sampleTask() Task {
	return Task{
		ID:           42,
		Title:        "Update website design",
		Description:  "Redesign the homepage layout",
		AssignedTo:   "John Smith",
		AssignedToID: 2,
		CreatedBy:    "Admin User",
		CreatedByID:  1,
		Priority:     PriorityHigh,
		Status:       StatusInProgress,
		DueDate:      "2025-07-30",
		CreatedAt:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMergeOnlySuppliedFields(t *testing.T) {
	before := sampleTask()
	status := StatusCompleted

	after := before.Merge(TaskUpdate{Status: &status})

	if after.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s", after.Status)
	}
	// Every other field must be retained verbatim.
	after.Status = before.Status
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("merge touched fields other than status: %+v vs %+v", before, after)
	}
}

func TestMergeEmptyUpdateIsIdentity(t *testing.T) {
	before := sampleTask()
	after := before.Merge(TaskUpdate{})
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("empty merge changed the task: %+v vs %+v", before, after)
	}
}

func TestMergeAllFields(t *testing.T) {
	title := "Database backup"
	desc := "Weekly backup"
	assignee := "Sarah Johnson"
	assigneeID := int64(3)
	prio := PriorityMedium
	status := StatusPending
	due := "2025-08-15"

	after := sampleTask().Merge(TaskUpdate{
		Title:        &title,
		Description:  &desc,
		AssignedTo:   &assignee,
		AssignedToID: &assigneeID,
		Priority:     &prio,
		Status:       &status,
		DueDate:      &due,
	})

	if after.Title != title || after.Description != desc || after.AssignedTo != assignee ||
		after.AssignedToID != assigneeID || after.Priority != prio || after.Status != status ||
		after.DueDate != due {
		t.Fatalf("merge did not apply all supplied fields: %+v", after)
	}
	if after.ID != 42 || after.CreatedByID != 1 {
		t.Fatalf("merge changed identity fields: %+v", after)
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		due     string
		status  Status
		overdue bool
	}{
		{"past due pending", "2025-07-30", StatusPending, true},
		{"past due completed", "2025-07-30", StatusCompleted, false},
		{"future due", "2025-08-15", StatusInProgress, false},
		{"empty due date", "", StatusPending, false},
		{"malformed due date", "soon", StatusPending, false},
	}
	for _, tc := range tests {
		task := Task{DueDate: tc.due, Status: tc.status}
		if got := task.Overdue(now); got != tc.overdue {
			t.Errorf("%s: Overdue = %v, want %v", tc.name, got, tc.overdue)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleManager, RoleEmployee} {
		if !r.Valid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("root").Valid() {
		t.Error("unknown role should be invalid")
	}
	if !StatusInProgress.Valid() || Status("done").Valid() {
		t.Error("status validity mismatch")
	}
	if !PriorityLow.Valid() || Priority("urgent").Valid() {
		t.Error("priority validity mismatch")
	}
}
