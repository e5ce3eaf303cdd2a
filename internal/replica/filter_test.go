package replica

import (
	"testing"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
)

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: 1, Title: "Fix bug", Description: "Crash on save", AssignedTo: "Sarah Johnson", Status: domain.StatusPending},
		{ID: 2, Title: "Ship release", Description: "Cut v2.1", AssignedTo: "John Smith", Status: domain.StatusCompleted},
		{ID: 3, Title: "Write docs", Description: "Debugging guide", AssignedTo: "Sarah Johnson", Status: domain.StatusInProgress},
	}
}

func TestFilterByStatus(t *testing.T) {
	got := Filter(sampleTasks(), "completed", "")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only the completed task, got %+v", got)
	}
}

func TestFilterAllMatchesEverything(t *testing.T) {
	got := Filter(sampleTasks(), StatusAll, "")
	if len(got) != 3 {
		t.Fatalf("expected all 3 tasks, got %d", len(got))
	}
}

func TestFilterSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		wantIDs []int64
	}{
		{"title match", "bug", []int64{1, 3}},          // "Fix bug" title, "Debugging" description
		{"uppercase query", "BUG", []int64{1, 3}},
		{"description match", "crash", []int64{1}},
		{"assignee match", "sarah", []int64{1, 3}},
		{"no match", "kubernetes", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleTasks(), StatusAll, tt.search)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d tasks, got %+v", len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("position %d: expected task %d, got %d", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestFilterCombinesStatusAndSearch(t *testing.T) {
	got := Filter(sampleTasks(), "pending", "sarah")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected task 1, got %+v", got)
	}
}

func TestFilterPreservesInputOrder(t *testing.T) {
	got := Filter(sampleTasks(), StatusAll, "")
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Fatalf("order changed: got %+v", got)
		}
	}
}

func TestNewestFirst(t *testing.T) {
	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 3, CreatedAt: base.Add(time.Hour)},
	}

	got := NewestFirst(tasks)
	for i, want := range []int64{2, 3, 1} {
		if got[i].ID != want {
			t.Fatalf("expected newest first, got %+v", got)
		}
	}
	if tasks[0].ID != 1 {
		t.Fatal("input slice was reordered")
	}
}
