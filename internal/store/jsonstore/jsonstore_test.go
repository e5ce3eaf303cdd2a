package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestEmptyStateIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(users))
	}
}

func TestMalformedFileFailsOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(s.dir, "tasks.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed malformed file: %v", err)
	}
	tasks, err := s.Tasks(ctx)
	if err != nil {
		t.Fatalf("read tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty collection from malformed file, got %d", len(tasks))
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := domain.Task{
		ID:        1,
		Title:     "Fix bug",
		Status:    domain.StatusPending,
		Priority:  domain.PriorityHigh,
		CreatedAt: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
	got, err := s.UpdateTasks(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		return append(tasks, task), nil
	})
	if err != nil {
		t.Fatalf("update tasks: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Fix bug" {
		t.Fatalf("unexpected update result: %+v", got)
	}

	read, err := s.Tasks(ctx)
	if err != nil {
		t.Fatalf("read tasks: %v", err)
	}
	if len(read) != 1 || read[0] != task {
		t.Fatalf("round trip mismatch: %+v", read)
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpdateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		return append(users, domain.User{ID: 1, Email: "a@x.com"}), nil
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err := s.UpdateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		return nil, domain.ErrDuplicateEmail
	})
	if err == nil {
		t.Fatal("expected update error")
	}

	users, _ := s.Users(ctx)
	if len(users) != 1 {
		t.Fatalf("failed update must not change the collection, got %d users", len(users))
	}
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := s.UpdateMessages(ctx, func(msgs []domain.Message) ([]domain.Message, error) {
				return append(msgs, domain.Message{ID: id, Content: "hi"}), nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	msgs, _ := s.Messages(ctx)
	if len(msgs) != n {
		t.Fatalf("lost updates: expected %d messages, got %d", n, len(msgs))
	}
}
