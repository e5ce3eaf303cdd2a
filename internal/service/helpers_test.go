package service

import (
	"sync"
	"testing"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/security/auth"
	"github.com/yourorg/taskhub/internal/store/jsonstore"
)

// recordingBroadcaster captures broadcast payloads for assertions.
type recordingBroadcaster struct {
	mu       sync.Mutex
	users    [][]domain.User
	tasks    [][]domain.Task
	messages [][]domain.Message
}

func (b *recordingBroadcaster) BroadcastUsers(users []domain.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, users)
}

func (b *recordingBroadcaster) BroadcastTasks(tasks []domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append(b.tasks, tasks)
}

func (b *recordingBroadcaster) BroadcastMessages(messages []domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, messages)
}

func (b *recordingBroadcaster) lastTasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.tasks) == 0 {
		return nil
	}
	return b.tasks[len(b.tasks)-1]
}

func (b *recordingBroadcaster) lastUsers() []domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.users) == 0 {
		return nil
	}
	return b.users[len(b.users)-1]
}

func (b *recordingBroadcaster) lastMessages() []domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.messages) == 0 {
		return nil
	}
	return b.messages[len(b.messages)-1]
}

type fixture struct {
	store    *jsonstore.Store
	bc       *recordingBroadcaster
	users    *UserService
	tasks    *TaskService
	messages *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := jsonstore.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	bc := &recordingBroadcaster{}
	tokens := auth.NewTokenManager("test-secret", "taskhub-test")
	messages := NewMessageService(store, bc, nil)
	return &fixture{
		store:    store,
		bc:       bc,
		users:    NewUserService(store, bc, tokens, nil),
		tasks:    NewTaskService(store, bc, messages, nil),
		messages: messages,
	}
}
