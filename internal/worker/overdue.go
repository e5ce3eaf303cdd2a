package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/observability/metrics"
	"github.com/yourorg/taskhub/internal/service"
)

// OverdueScanner periodically walks the tasks collection, posts a
// system note the first time a task crosses its due date, and keeps
// the overdue gauge current. No mutation is retried: a failed scan
// waits for the next tick.
type OverdueScanner struct {
	tasks    *service.TaskService
	messages *service.MessageService
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	notified map[int64]bool
}

// NewOverdueScanner creates an overdue scanner.
func NewOverdueScanner(
	tasks *service.TaskService,
	messages *service.MessageService,
	logger *slog.Logger,
	interval time.Duration,
) *OverdueScanner {
	return &OverdueScanner{
		tasks:    tasks,
		messages: messages,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		notified: make(map[int64]bool),
	}
}

// Start begins the scan loop. It blocks until the context is
// cancelled.
func (w *OverdueScanner) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("overdue scanner started", slog.Duration("interval", w.interval))

	// One scan up front so restarting the server does not delay the
	// gauge a full interval.
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue scanner stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *OverdueScanner) scan(ctx context.Context) {
	tasks, err := w.tasks.List(ctx)
	if err != nil {
		w.logger.Error("failed to list tasks", slog.String("error", err.Error()))
		return
	}

	now := w.now()
	overdue := 0
	seen := make(map[int64]bool, len(tasks))

	for _, t := range tasks {
		seen[t.ID] = true
		if !t.Overdue(now) {
			// A rescheduled task becomes eligible for a new note.
			w.mu.Lock()
			delete(w.notified, t.ID)
			w.mu.Unlock()
			continue
		}
		overdue++
		w.notifyOnce(ctx, t)
	}
	metrics.SetOverdueTasks(overdue)

	// Forget deleted tasks so the set does not grow forever.
	w.mu.Lock()
	for id := range w.notified {
		if !seen[id] {
			delete(w.notified, id)
		}
	}
	w.mu.Unlock()
}

// notifyOnce posts the overdue note the first time a task shows up
// overdue. A task whose due date moves back into the future and then
// lapses again gets a fresh note.
func (w *OverdueScanner) notifyOnce(ctx context.Context, t domain.Task) {
	w.mu.Lock()
	already := w.notified[t.ID]
	w.notified[t.ID] = true
	w.mu.Unlock()
	if already {
		return
	}

	content := fmt.Sprintf("Task %q is overdue (due %s)", t.Title, t.DueDate)
	if _, err := w.messages.CreateSystem(ctx, t.ID, content); err != nil {
		w.logger.Error("failed to post overdue note",
			slog.Int64("task_id", t.ID),
			slog.String("error", err.Error()),
		)
		// Allow a retry on the next tick.
		w.mu.Lock()
		delete(w.notified, t.ID)
		w.mu.Unlock()
		return
	}

	w.logger.Info("task overdue",
		slog.Int64("task_id", t.ID),
		slog.String("title", t.Title),
		slog.String("due_date", t.DueDate),
	)
}
