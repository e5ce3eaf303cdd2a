package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/observability/metrics"
	"github.com/yourorg/taskhub/pkg/cache"
)

// TaskService handles the task lifecycle: create, shallow-merge update,
// idempotent delete. Status changes additionally append a system note to the
// task's chat thread.
type TaskService struct {
	store       domain.Store
	broadcaster domain.Broadcaster
	messages    *MessageService
	cache       *cache.TTL[[]domain.Task]
	logger      *slog.Logger
	now         func() time.Time
}

// NewTaskService creates a task service.
func NewTaskService(store domain.Store, broadcaster domain.Broadcaster, messages *MessageService, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:       store,
		broadcaster: broadcaster,
		messages:    messages,
		cache:       cache.New[[]domain.Task](),
		logger:      logger,
		now:         time.Now,
	}
}

// List returns the full tasks collection.
func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := s.cache.Get(string(domain.CollectionTasks)); ok {
		return tasks, nil
	}
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(string(domain.CollectionTasks), tasks, collectionTTL)
	return tasks, nil
}

// Create appends a task. The initial status is forced to pending regardless
// of input. A non-zero AssignedToID must reference an existing user at
// creation time; the reference is never re-validated afterwards.
func (s *TaskService) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return domain.Task{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if !task.Priority.Valid() {
		return domain.Task{}, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, task.Priority)
	}

	if task.AssignedToID != 0 {
		users, err := s.store.Users(ctx)
		if err != nil {
			return domain.Task{}, err
		}
		found := false
		for _, u := range users {
			if u.ID == task.AssignedToID {
				found = true
				break
			}
		}
		if !found {
			return domain.Task{}, domain.ErrUnknownAssignee
		}
	}

	task.Status = domain.StatusPending
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}

	created := task
	all, err := s.store.UpdateTasks(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		if created.ID == 0 {
			created.ID = nextID(func(id int64) bool {
				for _, t := range tasks {
					if t.ID == id {
						return true
					}
				}
				return false
			})
		}
		return append(tasks, created), nil
	})
	if err != nil {
		metrics.ObserveMutation(string(domain.CollectionTasks), "create", "error")
		return domain.Task{}, err
	}

	metrics.ObserveMutation(string(domain.CollectionTasks), "create", "ok")
	s.cache.Set(string(domain.CollectionTasks), all, collectionTTL)
	s.broadcaster.BroadcastTasks(all)

	s.logger.Info("task created",
		slog.Int64("task_id", created.ID),
		slog.String("title", created.Title),
		slog.String("assigned_to", created.AssignedTo),
	)
	return created, nil
}

// Update shallow-merges the supplied fields into an existing task. A status
// change appends a system note to the thread; actor names who made the
// change and may be empty.
func (s *TaskService) Update(ctx context.Context, id int64, upd domain.TaskUpdate, actor string) (domain.Task, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return domain.Task{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *upd.Status)
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return domain.Task{}, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, *upd.Priority)
	}

	var before, after domain.Task
	all, err := s.store.UpdateTasks(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		for i, t := range tasks {
			if t.ID == id {
				before = t
				after = t.Merge(upd)
				tasks[i] = after
				return tasks, nil
			}
		}
		return nil, domain.ErrTaskNotFound
	})
	if err != nil {
		metrics.ObserveMutation(string(domain.CollectionTasks), "update", "error")
		return domain.Task{}, err
	}

	metrics.ObserveMutation(string(domain.CollectionTasks), "update", "ok")
	s.cache.Set(string(domain.CollectionTasks), all, collectionTTL)
	s.broadcaster.BroadcastTasks(all)

	if before.Status != after.Status {
		note := fmt.Sprintf("Task status changed from %q to %q",
			strings.ReplaceAll(string(before.Status), "-", " "),
			strings.ReplaceAll(string(after.Status), "-", " "),
		)
		if actor != "" {
			note += " by " + actor
		}
		if _, err := s.messages.CreateSystem(ctx, id, note); err != nil {
			s.logger.Error("failed to append status-change note",
				slog.Int64("task_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return after, nil
}

// Delete removes a task by id. Deleting an absent id is a no-op, not an
// error.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	all, err := s.store.UpdateTasks(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		return kept, nil
	})
	if err != nil {
		metrics.ObserveMutation(string(domain.CollectionTasks), "delete", "error")
		return err
	}

	metrics.ObserveMutation(string(domain.CollectionTasks), "delete", "ok")
	s.cache.Set(string(domain.CollectionTasks), all, collectionTTL)
	s.broadcaster.BroadcastTasks(all)

	s.logger.Info("task deleted", slog.Int64("task_id", id))
	return nil
}

// Stats summarizes the tasks collection for the dashboard header.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// Stats counts tasks by status and how many are past their due date.
func (s *TaskService) Stats(ctx context.Context) (Stats, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	stats := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusCompleted:
			stats.Completed++
		}
		if t.Overdue(now) {
			stats.Overdue++
		}
	}

	metrics.SetTasksByStatus(string(domain.StatusPending), stats.Pending)
	metrics.SetTasksByStatus(string(domain.StatusInProgress), stats.InProgress)
	metrics.SetTasksByStatus(string(domain.StatusCompleted), stats.Completed)
	metrics.SetOverdueTasks(stats.Overdue)

	return stats, nil
}
