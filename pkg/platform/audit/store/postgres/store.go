package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "intake/pkg/platform/audit"
	txcontext "intake/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends made inside
// a store transaction join it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	timestamp   TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	response_id TEXT NOT NULL DEFAULT '',
	template_id TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	records     INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_response_idx ON audit_events (response_id, timestamp);
`

// Migrate creates the audit table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

// Append inserts an event. Re-delivered events with the same ID are ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}

	query := `
		INSERT INTO audit_events (
			id, timestamp, action, response_id, template_id,
			subject, request_id, records, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		string(event.Action),
		event.ResponseID,
		event.TemplateID,
		event.Subject,
		event.RequestID,
		event.Records,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByResponse returns the events of one response, oldest first.
func (s *Store) ListByResponse(ctx context.Context, responseID string) ([]audit.Event, error) {
	query := `
		SELECT id, timestamp, action, response_id, template_id,
			   subject, request_id, records, detail
		FROM audit_events
		WHERE response_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, responseID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event   audit.Event
			eventID uuid.UUID
			action  string
		)
		if err := rows.Scan(
			&eventID,
			&event.Timestamp,
			&action,
			&event.ResponseID,
			&event.TemplateID,
			&event.Subject,
			&event.RequestID,
			&event.Records,
			&event.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = eventID.String()
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
