// Package audit captures key domain actions as events. Events are
// transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "fabula/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/moderation significance:
	// account lifecycle, role grants, content removal.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// failed logins, rejected credentials.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and visibility:
	// routine content activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic. Emission is fire-and-forget; a failed
// append never fails the request that produced it.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	// Subject names the entity acted on (tale id, comment id) when it is
	// not the user itself.
	Subject string
	Action  string
	Reason  string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an admin deleting another user's comment.
	ActorID string
}

type AuditEvent string

const (
	EventUserRegistered  AuditEvent = "user_registered"
	EventUserVerified    AuditEvent = "user_verified"
	EventUserRoleChanged AuditEvent = "user_role_changed"
	EventAuthFailed      AuditEvent = "auth_failed"
	EventTaleCreated     AuditEvent = "tale_created"
	EventTaleUpdated     AuditEvent = "tale_updated"
	EventTaleDeleted     AuditEvent = "tale_deleted"
	EventTaleRated       AuditEvent = "tale_rated"
	EventCommentRemoved  AuditEvent = "comment_removed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered:  CategoryCompliance,
	EventUserVerified:    CategoryCompliance,
	EventUserRoleChanged: CategoryCompliance,
	EventAuthFailed:      CategorySecurity,
	EventTaleCreated:     CategoryOperations,
	EventTaleUpdated:     CategoryOperations,
	EventTaleDeleted:     CategoryCompliance,
	EventTaleRated:       CategoryOperations,
	EventCommentRemoved:  CategoryCompliance,
}

// Category derives the event's category; unknown actions default to
// operations so they are never silently dropped.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
