// Package jsonstore persists each collection as one JSON array file,
// rewritten wholesale on every mutation.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourorg/taskhub/internal/domain"
)

// Store keeps users.json, tasks.json and messages.json under a data
// directory. Each collection has its own lock held across every
// read-modify-write so concurrent mutations cannot lose updates.
type Store struct {
	dir    string
	logger *slog.Logger

	usersMu    sync.Mutex
	tasksMu    sync.Mutex
	messagesMu sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(collection domain.Collection) string {
	return filepath.Join(s.dir, string(collection)+".json")
}

// readFile decodes a collection file. Unreadable or malformed files yield an
// empty collection; callers tolerate starting from empty state.
func readFile[T any](s *Store, collection domain.Collection) []T {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("collection unreadable, treating as empty",
				slog.String("collection", string(collection)),
				slog.String("error", err.Error()),
			)
		}
		return []T{}
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("collection malformed, treating as empty",
			slog.String("collection", string(collection)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// writeFile persists a collection via a temp file and rename so readers
// never observe a partial write.
func writeFile[T any](s *Store, collection domain.Collection, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	tmp, err := os.CreateTemp(s.dir, string(collection)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), s.path(collection)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", collection, err)
	}
	return nil
}

func update[T any](s *Store, mu *sync.Mutex, collection domain.Collection, fn func([]T) ([]T, error)) ([]T, error) {
	mu.Lock()
	defer mu.Unlock()

	current := readFile[T](s, collection)
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []T{}
	}
	if err := writeFile(s, collection, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return readFile[domain.User](s, domain.CollectionUsers), nil
}

func (s *Store) Tasks(ctx context.Context) ([]domain.Task, error) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	return readFile[domain.Task](s, domain.CollectionTasks), nil
}

func (s *Store) Messages(ctx context.Context) ([]domain.Message, error) {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	return readFile[domain.Message](s, domain.CollectionMessages), nil
}

func (s *Store) UpdateUsers(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) ([]domain.User, error) {
	return update(s, &s.usersMu, domain.CollectionUsers, fn)
}

func (s *Store) UpdateTasks(ctx context.Context, fn func([]domain.Task) ([]domain.Task, error)) ([]domain.Task, error) {
	return update(s, &s.tasksMu, domain.CollectionTasks, fn)
}

func (s *Store) UpdateMessages(ctx context.Context, fn func([]domain.Message) ([]domain.Message, error)) ([]domain.Message, error) {
	return update(s, &s.messagesMu, domain.CollectionMessages, fn)
}

// Ping verifies the data directory is still present and writable.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("data dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }
