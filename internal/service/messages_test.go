package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
)

func TestCreateMessageVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No existence check against the referenced task.
	msg := domain.Message{
		ID:        99,
		TaskID:    12345,
		UserID:    2,
		UserName:  "John Smith",
		Content:   "Is this still blocked?",
		Timestamp: time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC),
		Type:      domain.MessageUser,
	}
	created, err := f.messages.Create(ctx, msg)
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if !reflect.DeepEqual(created, msg) {
		t.Fatalf("message not appended verbatim:\ngot  %+v\nwant %+v", created, msg)
	}

	stored, _ := f.store.Messages(ctx)
	if len(stored) != 1 || !reflect.DeepEqual(stored[0], msg) {
		t.Fatalf("stored message mismatch: %+v", stored)
	}
	if !reflect.DeepEqual(f.bc.lastMessages(), stored) {
		t.Fatalf("broadcast differs from store")
	}
}

func TestCreateMessageDefaults(t *testing.T) {
	f := newFixture(t)
	f.messages.now = func() time.Time { return time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC) }

	created, err := f.messages.Create(context.Background(), domain.Message{TaskID: 1, Content: "hi"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned message id")
	}
	if created.Type != domain.MessageUser {
		t.Fatalf("expected user kind default, got %s", created.Type)
	}
	if !created.Timestamp.Equal(time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected stamped timestamp, got %v", created.Timestamp)
	}
}

func TestForTaskFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, m := range []domain.Message{
		{TaskID: 1, Content: "a"},
		{TaskID: 2, Content: "b"},
		{TaskID: 1, Content: "c"},
	} {
		if _, err := f.messages.Create(ctx, m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	thread, err := f.messages.ForTask(ctx, 1)
	if err != nil {
		t.Fatalf("for task: %v", err)
	}
	if len(thread) != 2 || thread[0].Content != "a" || thread[1].Content != "c" {
		t.Fatalf("unexpected thread: %+v", thread)
	}
}
