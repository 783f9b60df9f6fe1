package dto

import (
	"time"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/service"
)

// CreateTokenRequest payload for POST /admin/tokens.
type CreateTokenRequest struct {
	Name           string     `json:"name"`
	User           string     `json:"user"`
	CanWrite       bool       `json:"can_write"`
	CanEdit        bool       `json:"can_edit"`
	CanDelete      bool       `json:"can_delete"`
	AllowedVendors []int64    `json:"allowed_vendors"`
	ThrottleScope  string     `json:"throttle_scope"`
	ValidUntil     *time.Time `json:"valid_until"`
}

// Input converts the request for the token service. The owner defaults to ownerID.
func (r CreateTokenRequest) Input(ownerID string) service.TokenCreateInput {
	if r.User == "" {
		r.User = ownerID
	}
	return service.TokenCreateInput{
		Name:           r.Name,
		OwnerID:        r.User,
		CanWrite:       r.CanWrite,
		CanEdit:        r.CanEdit,
		CanDelete:      r.CanDelete,
		AllowedVendors: r.AllowedVendors,
		ThrottleClass:  domain.ThrottleClass(r.ThrottleScope),
		ValidUntil:     r.ValidUntil,
	}
}

// TokenResponse describes a stored token. The secret key is never returned.
type TokenResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	User           string    `json:"user"`
	CanWrite       bool      `json:"can_write"`
	CanEdit        bool      `json:"can_edit"`
	CanDelete      bool      `json:"can_delete"`
	AllowedVendors []int64   `json:"allowed_vendors"`
	ThrottleScope  string    `json:"throttle_scope"`
	ValidUntil     time.Time `json:"valid_until"`
	IsValid        bool      `json:"is_valid"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreatedTokenResponse adds the one-shot credential to the created token.
type CreatedTokenResponse struct {
	TokenResponse
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewTokenResponse maps a token for output.
func NewTokenResponse(token *domain.APIToken, now time.Time) TokenResponse {
	vendors := token.AllowedVendors
	if vendors == nil {
		vendors = []int64{}
	}
	return TokenResponse{
		ID:             token.ID,
		Name:           token.Name,
		User:           token.OwnerID,
		CanWrite:       token.CanWrite,
		CanEdit:        token.CanEdit,
		CanDelete:      token.CanDelete,
		AllowedVendors: vendors,
		ThrottleScope:  string(token.ThrottleClass),
		ValidUntil:     token.ValidUntil,
		IsValid:        token.IsValid(now),
		CreatedAt:      token.CreatedAt,
	}
}
