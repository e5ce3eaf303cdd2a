// Package redisstore is an alternate store backend holding each collection
// as one JSON blob under a Redis key. The read-full/replace-full contract is
// identical to the flat-file store.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/infrastructure/redis"
)

const keyPrefix = "taskhub:collection:"

// Store serializes read-modify-write pairs per collection with in-process
// locks; it assumes a single server instance owns the keys.
type Store struct {
	client *redis.Client
	logger *slog.Logger

	usersMu    sync.Mutex
	tasksMu    sync.Mutex
	messagesMu sync.Mutex
}

// New creates a Redis-backed store.
func New(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func read[T any](ctx context.Context, s *Store, collection domain.Collection) []T {
	value, found, err := s.client.Get(ctx, keyPrefix+string(collection))
	if err != nil {
		s.logger.Warn("collection unreadable, treating as empty",
			slog.String("collection", string(collection)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}
	if !found {
		return []T{}
	}
	var records []T
	if err := json.Unmarshal([]byte(value), &records); err != nil {
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

func write[T any](ctx context.Context, s *Store, collection domain.Collection, records []T) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.client.Set(ctx, keyPrefix+string(collection), string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", collection, err)
	}
	return nil
}

func update[T any](ctx context.Context, s *Store, mu *sync.Mutex, collection domain.Collection, fn func([]T) ([]T, error)) ([]T, error) {
	mu.Lock()
	defer mu.Unlock()

	next, err := fn(read[T](ctx, s, collection))
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []T{}
	}
	if err := write(ctx, s, collection, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return read[domain.User](ctx, s, domain.CollectionUsers), nil
}

func (s *Store) Tasks(ctx context.Context) ([]domain.Task, error) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	return read[domain.Task](ctx, s, domain.CollectionTasks), nil
}

func (s *Store) Messages(ctx context.Context) ([]domain.Message, error) {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	return read[domain.Message](ctx, s, domain.CollectionMessages), nil
}

func (s *Store) UpdateUsers(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) ([]domain.User, error) {
	return update(ctx, s, &s.usersMu, domain.CollectionUsers, fn)
}

func (s *Store) UpdateTasks(ctx context.Context, fn func([]domain.Task) ([]domain.Task, error)) ([]domain.Task, error) {
	return update(ctx, s, &s.tasksMu, domain.CollectionTasks, fn)
}

func (s *Store) UpdateMessages(ctx context.Context, fn func([]domain.Message) ([]domain.Message, error)) ([]domain.Message, error) {
	return update(ctx, s, &s.messagesMu, domain.CollectionMessages, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close() error {
	return s.client.Close()
}
