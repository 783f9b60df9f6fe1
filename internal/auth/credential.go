package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/Cristi-la/EOL-Net/internal/domain"
)

// ErrTokenExpired is returned when a credential is requested for a token whose
// validity window has already closed.
var ErrTokenExpired = errors.New("token validity has already ended")

// CredentialClaims is the payload of an API credential. The capability flags are a
// snapshot taken at issue time and are trusted for the credential's lifetime.
type CredentialClaims struct {
	TokenKey      string `json:"token_key,omitempty"`
	CanWrite      bool   `json:"can_write"`
	CanEdit       bool   `json:"can_edit"`
	CanDelete     bool   `json:"can_delete"`
	ThrottleScope string `json:"throttle_scope,omitempty"`
	ValidUntil    *int64 `json:"valid_until,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// CredentialManager issues and verifies HS256-signed API credentials.
type CredentialManager struct {
	secret []byte
	now    func() time.Time
}

// NewCredentialManager builds a manager signing with secret.
func NewCredentialManager(secret string) *CredentialManager {
	return &CredentialManager{secret: []byte(secret), now: time.Now}
}

// Issue signs a credential for token. The credential expires when the token does.
// Issuing does not touch the token store and may be repeated.
func (m *CredentialManager) Issue(token *domain.APIToken) (string, time.Time, error) {
	now := m.now()
	lifetime := token.ValidUntil.Sub(now)
	if lifetime <= 0 {
		return "", time.Time{}, ErrTokenExpired
	}

	expiresAt := now.Add(lifetime)
	validUntil := token.ValidUntil.Unix()
	claims := &CredentialClaims{
		TokenKey:      token.Key,
		CanWrite:      token.CanWrite,
		CanEdit:       token.CanEdit,
		CanDelete:     token.CanDelete,
		ThrottleScope: string(token.ThrottleClass),
		ValidUntil:    &validUntil,
		UserID:        token.OwnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, algorithm and exp claim, and returns the claims.
func (m *CredentialManager) Parse(raw string) (*CredentialClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &CredentialClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*CredentialClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid credential claims")
	}
	return claims, nil
}
