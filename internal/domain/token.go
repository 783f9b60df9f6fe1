package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ThrottleClass names a rate-limit tier.
type ThrottleClass string

const (
	ThrottleAnonymous        ThrottleClass = "anon"
	ThrottleDefault          ThrottleClass = "default"
	ThrottleHighAvailability ThrottleClass = "ha"
	// ThrottleRead is the fallback tier for credentials whose scope is missing or unknown.
	// It cannot be assigned to a token.
	ThrottleRead ThrottleClass = "read"
)

// AssignableThrottleClasses lists the classes a token may carry.
var AssignableThrottleClasses = []ThrottleClass{
	ThrottleAnonymous,
	ThrottleDefault,
	ThrottleHighAvailability,
}

// Valid reports whether c can be stored on a token.
func (c ThrottleClass) Valid() bool {
	for _, candidate := range AssignableThrottleClasses {
		if c == candidate {
			return true
		}
	}
	return false
}

const (
	tokenKeyBytes = 20
	// DefaultTokenLifetime applies when a token is created without an explicit expiry.
	DefaultTokenLifetime = 365 * 24 * time.Hour
)

// APIToken is a persisted capability record. Write access is granted per verb and
// scoped to AllowedVendors.
type APIToken struct {
	ID             string
	Name           string
	Key            string
	OwnerID        string
	CanWrite       bool
	CanEdit        bool
	CanDelete      bool
	AllowedVendors []int64
	ThrottleClass  ThrottleClass
	ValidUntil     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsValid reports whether the token has not yet expired at now.
func (t *APIToken) IsValid(now time.Time) bool {
	return now.Before(t.ValidUntil)
}

// GrantsWrites reports whether any mutating capability is set.
func (t *APIToken) GrantsWrites() bool {
	return t.CanWrite || t.CanEdit || t.CanDelete
}

// AllowsVendor reports whether vendorID is on the token's allowlist.
func (t *APIToken) AllowsVendor(vendorID int64) bool {
	for _, id := range t.AllowedVendors {
		if id == vendorID {
			return true
		}
	}
	return false
}

// GenerateTokenKey returns 20 random bytes hex-encoded (40 characters).
func GenerateTokenKey() (string, error) {
	buf := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
