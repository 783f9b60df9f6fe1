package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/config"
	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// AuthService manages accounts and admin sessions.
type AuthService struct {
	users      repository.UserRepository
	sessions   *auth.SessionManager
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL()),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// CreateUser registers an account that can own tokens. Admins may also log in to the
// admin surface.
func (s *AuthService) CreateUser(ctx context.Context, actor events.Actor, input UserCreateInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	err := validation.ValidateStruct(&input,
		validation.Field(&input.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(3, 150).Error("username must be between 3 and 150 characters"),
			validation.Match(usernamePattern).Error("username may contain letters, digits and @.+-_ only"),
		),
		validation.Field(&input.Email,
			validation.Match(emailPattern).Error("email is invalid"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(8, 128).Error("password must be between 8 and 128 characters"),
		),
	)
	if err != nil {
		return nil, wrapValidationError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("username already taken", map[string]any{"username": user.Username})
		}
		return nil, fmt.Errorf("store user: %w", err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventUserCreated,
		SubjectID: user.ID,
		Actor:     actor,
		Payload:   events.UserPayload{Username: user.Username, IsAdmin: user.IsAdmin},
	})
	return user, nil
}

// Login verifies credentials and issues an admin session. Only admins may log in.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsAdmin {
		return nil, "", time.Time{}, apperrors.NewForbidden("admin role required")
	}

	token, exp, err := s.sessions.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return user, token, exp, nil
}

// DeleteUser removes an account. Its tokens are deleted with it, revoking every
// credential they issued.
func (s *AuthService) DeleteUser(ctx context.Context, actor events.Actor, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return fmt.Errorf("load user: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return fmt.Errorf("delete user: %w", err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventUserDeleted,
		SubjectID: id,
		Actor:     actor,
		Payload:   events.UserPayload{Username: user.Username, IsAdmin: user.IsAdmin},
	})
	return nil
}

// Sessions exposes the session manager for middleware usage.
func (s *AuthService) Sessions() *auth.SessionManager {
	return s.sessions
}
