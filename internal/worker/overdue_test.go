package worker

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/service"
	"github.com/yourorg/taskhub/internal/store/jsonstore"
)

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastUsers([]domain.User)       {}
func (nopBroadcaster) BroadcastTasks([]domain.Task)       {}
func (nopBroadcaster) BroadcastMessages([]domain.Message) {}

func newScanner(t *testing.T) (*OverdueScanner, *service.TaskService, *service.MessageService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jsonstore.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("jsonstore: %v", err)
	}
	messages := service.NewMessageService(store, nopBroadcaster{}, logger)
	tasks := service.NewTaskService(store, nopBroadcaster{}, messages, logger)
	scanner := NewOverdueScanner(tasks, messages, logger, time.Minute)
	return scanner, tasks, messages
}

func TestScanPostsOneNotePerOverdueTask(t *testing.T) {
	scanner, tasks, messages := newScanner(t)
	ctx := context.Background()

	scanner.now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	created, err := tasks.Create(ctx, domain.Task{Title: "Fix bug", DueDate: "2025-07-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := tasks.Create(ctx, domain.Task{Title: "Ship release", DueDate: "2025-12-01"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	scanner.scan(ctx)
	scanner.scan(ctx)

	thread, err := messages.ForTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("expected exactly one overdue note, got %d", len(thread))
	}
	if thread[0].Type != domain.MessageSystem {
		t.Fatalf("expected system note, got %s", thread[0].Type)
	}
	if !strings.Contains(thread[0].Content, "overdue") {
		t.Fatalf("unexpected note: %q", thread[0].Content)
	}

	all, _ := messages.List(ctx)
	if len(all) != 1 {
		t.Fatalf("future-dated task got a note: %+v", all)
	}
}

func TestRescheduledTaskGetsFreshNote(t *testing.T) {
	scanner, tasks, messages := newScanner(t)
	ctx := context.Background()

	scanner.now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	created, err := tasks.Create(ctx, domain.Task{Title: "Fix bug", DueDate: "2025-07-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	scanner.scan(ctx)

	// Push the due date out, then let it lapse again.
	future := "2025-08-01"
	if _, err := tasks.Update(ctx, created.ID, domain.TaskUpdate{DueDate: &future}, ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	scanner.scan(ctx)

	scanner.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	scanner.scan(ctx)

	thread, _ := messages.ForTask(ctx, created.ID)
	if len(thread) != 2 {
		t.Fatalf("expected two overdue notes, got %d: %+v", len(thread), thread)
	}
}

func TestDeletedTaskForgotten(t *testing.T) {
	scanner, tasks, _ := newScanner(t)
	ctx := context.Background()

	scanner.now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	created, err := tasks.Create(ctx, domain.Task{Title: "Fix bug", DueDate: "2025-07-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	scanner.scan(ctx)

	if err := tasks.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	scanner.scan(ctx)

	scanner.mu.Lock()
	defer scanner.mu.Unlock()
	if scanner.notified[created.ID] {
		t.Fatal("deleted task still tracked")
	}
}
