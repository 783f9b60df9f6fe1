package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenCreated  EventType = "token_created"
	EventTokenRevoked  EventType = "token_revoked"
	EventUserCreated   EventType = "user_created"
	EventUserDeleted   EventType = "user_deleted"
	EventEntityCreated EventType = "entity_created"
	EventEntityUpdated EventType = "entity_updated"
	EventEntityDeleted EventType = "entity_deleted"
)

// ActorKind says how the actor was authenticated.
type ActorKind string

const (
	ActorAdmin    ActorKind = "admin"
	ActorAPIToken ActorKind = "api_token"
	ActorCLI      ActorKind = "cli"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenCreatedPayload payload.
type TokenCreatedPayload struct {
	Name           string  `json:"name"`
	OwnerID        string  `json:"owner_id"`
	CanWrite       bool    `json:"can_write"`
	CanEdit        bool    `json:"can_edit"`
	CanDelete      bool    `json:"can_delete"`
	AllowedVendors []int64 `json:"allowed_vendors"`
	ThrottleClass  string  `json:"throttle_class"`
	ValidUntil     int64   `json:"valid_until"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	Name string `json:"name"`
}

// UserPayload payload for user lifecycle events.
type UserPayload struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// EntityPayload payload for catalog writes.
type EntityPayload struct {
	Kind     string `json:"kind"`
	VendorID int64  `json:"vendor_id"`
	Name     string `json:"name"`
}
