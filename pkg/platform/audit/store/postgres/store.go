package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "fabula/pkg/domain"
	audit "fabula/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	var userID any
	if !event.UserID.IsNil() {
		userID = event.UserID.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, user_id, subject, action, reason, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.NewString(), string(category), timestamp, userID, event.Subject, event.Action, event.Reason, event.RequestID, event.ActorID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, subject, action, reason, request_id, actor_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event := audit.Event{UserID: userID}
		var category string
		if err := rows.Scan(&category, &event.Timestamp, &event.Subject, &event.Action, &event.Reason, &event.RequestID, &event.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
