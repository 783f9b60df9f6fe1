package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// TokenCreateInput describes a new API token.
type TokenCreateInput struct {
	Name           string
	OwnerID        string
	CanWrite       bool
	CanEdit        bool
	CanDelete      bool
	AllowedVendors []int64
	ThrottleClass  domain.ThrottleClass
	// ValidUntil defaults to one year from now.
	ValidUntil *time.Time
}

// IssuedToken is a freshly created token together with its credential. The
// credential is not stored and cannot be retrieved again.
type IssuedToken struct {
	Token      *domain.APIToken
	Credential string
	ExpiresAt  time.Time
}

// CredentialIssuer signs the bearer credential for a token.
type CredentialIssuer interface {
	Issue(token *domain.APIToken) (string, time.Time, error)
}

// TokenService administers API tokens.
type TokenService struct {
	tokens      repository.TokenRepository
	users       repository.UserRepository
	vendors     repository.VendorRepository
	credentials CredentialIssuer
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TokenDependencies bundles collaborators for the token service.
type TokenDependencies struct {
	TokenRepo   repository.TokenRepository
	UserRepo    repository.UserRepository
	VendorRepo  repository.VendorRepository
	Credentials CredentialIssuer
	Dispatcher  events.Dispatcher
}

// NewTokenService constructs the service.
func NewTokenService(deps TokenDependencies) *TokenService {
	return &TokenService{
		tokens:      deps.TokenRepo,
		users:       deps.UserRepo,
		vendors:     deps.VendorRepo,
		credentials: deps.Credentials,
		dispatcher:  deps.Dispatcher,
		now:         time.Now,
	}
}

// Create validates input, signs the one-shot credential and stores the token. Nothing
// is stored when signing fails.
func (s *TokenService) Create(ctx context.Context, actor events.Actor, input TokenCreateInput) (*IssuedToken, error) {
	now := s.now()
	token := &domain.APIToken{
		Name:           strings.TrimSpace(input.Name),
		OwnerID:        input.OwnerID,
		CanWrite:       input.CanWrite,
		CanEdit:        input.CanEdit,
		CanDelete:      input.CanDelete,
		AllowedVendors: dedupeVendors(input.AllowedVendors),
		ThrottleClass:  input.ThrottleClass,
		ValidUntil:     now.Add(domain.DefaultTokenLifetime),
	}
	if token.ThrottleClass == "" {
		token.ThrottleClass = domain.ThrottleDefault
	}
	if input.ValidUntil != nil {
		token.ValidUntil = *input.ValidUntil
	}

	if err := s.validate(now, token); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, token.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("validation failed", map[string]any{"owner_id": "user does not exist"})
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}

	missing, err := s.vendors.Missing(ctx, token.AllowedVendors)
	if err != nil {
		return nil, fmt.Errorf("check vendors: %w", err)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{
			"allowed_vendors": fmt.Sprintf("unknown vendor ids: %v", missing),
		})
	}

	key, err := domain.GenerateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("generate token key: %w", err)
	}
	token.Key = key

	credential, expiresAt, err := s.credentials.Issue(token)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("a token with this name already exists", map[string]any{"name": token.Name})
		}
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, apperrors.NewValidationError("owner or vendor no longer exists", nil)
		}
		return nil, fmt.Errorf("store token: %w", err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTokenCreated,
		SubjectID: token.ID,
		Actor:     actor,
		Payload: events.TokenCreatedPayload{
			Name:           token.Name,
			OwnerID:        token.OwnerID,
			CanWrite:       token.CanWrite,
			CanEdit:        token.CanEdit,
			CanDelete:      token.CanDelete,
			AllowedVendors: token.AllowedVendors,
			ThrottleClass:  string(token.ThrottleClass),
			ValidUntil:     token.ValidUntil.Unix(),
		},
	})

	return &IssuedToken{Token: token, Credential: credential, ExpiresAt: expiresAt}, nil
}

func (s *TokenService) validate(now time.Time, token *domain.APIToken) error {
	classes := make([]interface{}, 0, len(domain.AssignableThrottleClasses))
	for _, class := range domain.AssignableThrottleClasses {
		classes = append(classes, class)
	}

	err := validation.ValidateStruct(token,
		validation.Field(&token.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, 200).Error("name must be at most 200 characters"),
		),
		validation.Field(&token.OwnerID,
			validation.Required.Error("owner is required"),
		),
		validation.Field(&token.ThrottleClass,
			validation.In(classes...).Error("throttle class must be one of anon, default, ha"),
		),
		validation.Field(&token.AllowedVendors,
			validation.When(token.GrantsWrites(), validation.Required.Error("allowed vendors are required when any write capability is granted")),
			// Min skips zero values, so Required rejects 0.
			validation.Each(
				validation.Required.Error("vendor ids must be positive"),
				validation.Min(int64(1)).Error("vendor ids must be positive"),
			),
		),
	)
	if err != nil {
		return wrapValidationError(err)
	}
	if !token.ValidUntil.After(now) {
		return apperrors.NewValidationError("validation failed", map[string]any{"valid_until": "must be in the future"})
	}
	return nil
}

// List returns all tokens, newest first.
func (s *TokenService) List(ctx context.Context) ([]domain.APIToken, error) {
	return s.tokens.List(ctx)
}

// Delete removes a token. Every credential issued for it stops authenticating writes
// immediately.
func (s *TokenService) Delete(ctx context.Context, actor events.Actor, id string) error {
	token, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("token", map[string]any{"token_id": id})
		}
		return fmt.Errorf("delete token: %w", err)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTokenRevoked,
		SubjectID: id,
		Actor:     actor,
		Payload:   events.TokenRevokedPayload{Name: token.Name},
	})
	return nil
}

func (s *TokenService) find(ctx context.Context, id string) (*domain.APIToken, error) {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("token", map[string]any{"token_id": id})
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func dedupeVendors(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
