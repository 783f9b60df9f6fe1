package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// TokenLookup resolves a credential's token_key to its stored record.
type TokenLookup interface {
	GetByKey(ctx context.Context, key string) (*domain.APIToken, error)
}

// AuthContext is the outcome of a successful authentication: the live token row and
// the verified claims it was reached through.
type AuthContext struct {
	Token  *domain.APIToken
	Claims *CredentialClaims
}

// Authenticator verifies credentials and checks that their backing token still exists.
type Authenticator struct {
	credentials *CredentialManager
	tokens      TokenLookup
	now         func() time.Time
}

// NewAuthenticator constructs an authenticator.
func NewAuthenticator(credentials *CredentialManager, tokens TokenLookup) *Authenticator {
	return &Authenticator{credentials: credentials, tokens: tokens, now: time.Now}
}

// Authenticate verifies raw and resolves it against the token store.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*AuthContext, error) {
	claims, err := a.credentials.Parse(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired credential")
	}
	return a.Resolve(ctx, claims)
}

// Resolve runs the store checks on claims whose signature was already verified.
// Deleting the token row revokes every credential issued for it, even ones whose
// signature and expiry are still good. The valid_until claim is checked separately
// from exp and is authoritative for expiry.
func (a *Authenticator) Resolve(ctx context.Context, claims *CredentialClaims) (*AuthContext, error) {
	if claims == nil {
		return nil, apperrors.NewUnauthorized("missing credential")
	}
	if claims.TokenKey == "" {
		return nil, apperrors.NewUnauthorized("malformed credential: missing key")
	}

	token, err := a.tokens.GetByKey(ctx, claims.TokenKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewForbidden("token has been revoked or does not exist")
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	if claims.ValidUntil == nil {
		return nil, apperrors.NewForbidden("malformed credential: missing expiration")
	}
	if !a.now().Before(time.Unix(*claims.ValidUntil, 0)) {
		return nil, apperrors.NewForbidden("token has expired")
	}

	return &AuthContext{Token: token, Claims: claims}, nil
}
