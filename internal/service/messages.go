package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/observability/metrics"
	"github.com/yourorg/taskhub/pkg/cache"
)

// MessageService handles the append-only messages collection.
type MessageService struct {
	store       domain.Store
	broadcaster domain.Broadcaster
	cache       *cache.TTL[[]domain.Message]
	logger      *slog.Logger
	now         func() time.Time
}

// NewMessageService creates a message service.
func NewMessageService(store domain.Store, broadcaster domain.Broadcaster, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		store:       store,
		broadcaster: broadcaster,
		cache:       cache.New[[]domain.Message](),
		logger:      logger,
		now:         time.Now,
	}
}

// List returns the full messages collection.
func (s *MessageService) List(ctx context.Context) ([]domain.Message, error) {
	if msgs, ok := s.cache.Get(string(domain.CollectionMessages)); ok {
		return msgs, nil
	}
	msgs, err := s.store.Messages(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(string(domain.CollectionMessages), msgs, collectionTTL)
	return msgs, nil
}

// ForTask returns the thread for one task, in stored order.
func (s *MessageService) ForTask(ctx context.Context, taskID int64) ([]domain.Message, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	thread := make([]domain.Message, 0)
	for _, m := range all {
		if m.TaskID == taskID {
			thread = append(thread, m)
		}
	}
	return thread, nil
}

// Create appends a message verbatim. The referenced task is not checked for
// existence; a thread may outlive its task.
func (s *MessageService) Create(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if msg.Type == "" {
		msg.Type = domain.MessageUser
	}

	created := msg
	all, err := s.store.UpdateMessages(ctx, func(msgs []domain.Message) ([]domain.Message, error) {
		if created.ID == 0 {
			created.ID = nextID(func(id int64) bool {
				for _, m := range msgs {
					if m.ID == id {
						return true
					}
				}
				return false
			})
		}
		return append(msgs, created), nil
	})
	if err != nil {
		metrics.ObserveMutation(string(domain.CollectionMessages), "create", "error")
		return domain.Message{}, err
	}

	metrics.ObserveMutation(string(domain.CollectionMessages), "create", "ok")
	s.cache.Set(string(domain.CollectionMessages), all, collectionTTL)
	s.broadcaster.BroadcastMessages(all)
	return created, nil
}

// CreateSystem appends a server-generated note to a task's thread.
func (s *MessageService) CreateSystem(ctx context.Context, taskID int64, content string) (domain.Message, error) {
	return s.Create(ctx, domain.Message{
		TaskID:   taskID,
		UserID:   0,
		UserName: "System",
		Content:  content,
		Type:     domain.MessageSystem,
	})
}
