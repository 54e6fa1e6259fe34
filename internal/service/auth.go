// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/model"
	"github.com/spendlog/spendlog/internal/repository"
)

// dummyHash is verified when the email is unknown so that both failure
// paths cost one hash computation.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=4$c3BlbmRsb2ctZHVtbXk$1m0kZ4yq2JQ3mZt8J0nX9c0aVv6xv5gKQpXvQ3bG7oE"

// AuthService registers and authenticates users.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenManager
	cache   ProfileCache
	metrics metrics.Recorder
	logger  *slog.Logger
	hash    func(string) (string, error)
	now     func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithProfileCache enables the profile read-through cache.
func WithProfileCache(c ProfileCache) AuthOption {
	return func(s *AuthService) {
		s.cache = c
	}
}

// WithHashParams sets the Argon2id cost used for new passwords.
func WithHashParams(p auth.Params) AuthOption {
	return func(s *AuthService) {
		s.hash = p.Hash
	}
}

// WithAuthClock overrides the time source.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenManager, recorder metrics.Recorder, logger *slog.Logger, opts ...AuthOption) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		users:   users,
		tokens:  tokens,
		metrics: recorder,
		logger:  logger,
		hash:    auth.HashPassword,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return "", ErrValidation
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:           ulid.Make().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user registered", "user_id", user.ID)

	return user.ID, nil
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Login verifies credentials and mints a session token.
// Unknown email and wrong password both return ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		_, _ = auth.VerifyPassword(password, dummyHash)
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrUnauthorized
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrUnauthorized
	}
	if !ok {
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.LoginSuccess)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Profile returns the user identified by userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, userID)
		if err != nil {
			s.logger.Warn("profile cache read failed", "user_id", userID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.Warn("profile cache write failed", "user_id", userID, "error", err)
		}
	}

	return user, nil
}
