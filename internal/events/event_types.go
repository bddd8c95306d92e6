package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/forum-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccessDenied  EventType = "access_denied"
	EventBanEnforced   EventType = "ban_enforced"
	EventSessionIssued EventType = "session_issued"
	EventRoleAssigned  EventType = "role_assigned"
	EventRoleRevoked   EventType = "role_revoked"
)

// Event represents an auth-relevant occurrence emitted by gates and services.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	UserID    *domain.UserID `json:"user_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   interface{}    `json:"payload"`
}

// New stamps an event with an ID and the current time.
func New(eventType EventType, userID *domain.UserID, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Gate   string `json:"gate"`
	Status int    `json:"status"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BanEnforcedPayload payload.
type BanEnforcedPayload struct {
	BannedUntil time.Time `json:"banned_until"`
	Path        string    `json:"path"`
}

// SessionIssuedPayload payload.
type SessionIssuedPayload struct {
	ExpiresAt  time.Time `json:"expires_at"`
	RememberMe bool      `json:"remember_me"`
}

// RoleAssignmentPayload payload for role_assigned and role_revoked.
type RoleAssignmentPayload struct {
	RoleID    int64         `json:"role_id"`
	ChangedBy domain.UserID `json:"changed_by"`
}
