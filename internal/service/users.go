package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/observability/metrics"
	"github.com/yourorg/taskhub/internal/security/auth"
	"github.com/yourorg/taskhub/pkg/cache"
)

// SessionTTL is how long a login token stays valid.
const SessionTTL = 24 * time.Hour

// UserService handles registration, login and the users collection.
type UserService struct {
	store       domain.Store
	broadcaster domain.Broadcaster
	tokens      *auth.TokenManager
	cache       *cache.TTL[[]domain.User]
	logger      *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(store domain.Store, broadcaster domain.Broadcaster, tokens *auth.TokenManager, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:       store,
		broadcaster: broadcaster,
		tokens:      tokens,
		cache:       cache.New[[]domain.User](),
		logger:      logger,
	}
}

// List returns the full users collection.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	if users, ok := s.cache.Get(string(domain.CollectionUsers)); ok {
		return users, nil
	}
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(string(domain.CollectionUsers), users, collectionTTL)
	return users, nil
}

// Register appends a new user. Registration fails with ErrDuplicateEmail if
// any existing user already holds the email.
func (s *UserService) Register(ctx context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(user.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if user.Password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if user.Role == "" {
		user.Role = domain.RoleEmployee
	}
	if !user.Role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, user.Role)
	}

	created := user
	all, err := s.store.UpdateUsers(ctx, func(users []domain.User) ([]domain.User, error) {
		for _, u := range users {
			if u.Email == created.Email {
				return nil, domain.ErrDuplicateEmail
			}
		}
		if created.ID == 0 {
			created.ID = nextID(func(id int64) bool {
				for _, u := range users {
					if u.ID == id {
						return true
					}
				}
				return false
			})
		}
		return append(users, created), nil
	})
	if err != nil {
		metrics.ObserveMutation(string(domain.CollectionUsers), "create", "error")
		return domain.User{}, err
	}

	metrics.ObserveMutation(string(domain.CollectionUsers), "create", "ok")
	s.cache.Set(string(domain.CollectionUsers), all, collectionTTL)
	s.broadcaster.BroadcastUsers(all)

	s.logger.Info("user registered",
		slog.Int64("user_id", created.ID),
		slog.String("email", created.Email),
		slog.String("role", string(created.Role)),
	)
	return created, nil
}

// Login matches email and password verbatim against the users collection
// and returns the user plus a signed session token. The token only tags the
// session; no endpoint requires it unless auth enforcement is switched on.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return domain.User{}, "", err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			token, err := s.tokens.GenerateToken(u, SessionTTL)
			if err != nil {
				return domain.User{}, "", fmt.Errorf("generate session token: %w", err)
			}
			return u, token, nil
		}
	}
	return domain.User{}, "", domain.ErrInvalidCredentials
}
