package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
)

// Store implements audit.Store and audit.AccessLog using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event into the audit_events table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	attrs, err := encodeAttributes(event.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, timestamp, subject, organization, action,
			attributes, decision, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		event.Subject.String(),
		event.Organization.String(),
		event.Action,
		attrs,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for a subject, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject id.DID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, subject, organization, action,
			   attributes, decision, reason, request_id
		FROM audit_events
		WHERE subject = $1
		ORDER BY timestamp DESC`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event              audit.Event
			category, sub, org string
			attrs              []byte
		)
		if err := rows.Scan(&category, &event.Timestamp, &sub, &org, &event.Action,
			&attrs, &event.Decision, &event.Reason, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Subject = id.DID(sub)
		event.Organization = id.OrganizationID(org)
		if event.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// AppendAccess records a served attribute read. It must succeed before the
// read is returned to the caller.
func (s *Store) AppendAccess(ctx context.Context, record audit.AccessRecord) error {
	attrs, err := encodeAttributes(record.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO access_audit (id, subject, organization, accessed_at, attributes, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID,
		record.Subject.String(),
		record.Organization.String(),
		record.AccessedAt,
		attrs,
		record.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert access record: %w", err)
	}
	return nil
}

func (s *Store) ListByOrganization(ctx context.Context, org id.OrganizationID) ([]audit.AccessRecord, error) {
	return s.listAccess(ctx, `
		SELECT id, subject, organization, accessed_at, attributes, request_id
		FROM access_audit
		WHERE organization = $1
		ORDER BY accessed_at DESC`, org.String())
}

func (s *Store) ListAccessBySubject(ctx context.Context, subject id.DID) ([]audit.AccessRecord, error) {
	return s.listAccess(ctx, `
		SELECT id, subject, organization, accessed_at, attributes, request_id
		FROM access_audit
		WHERE subject = $1
		ORDER BY accessed_at DESC`, subject.String())
}

func (s *Store) listAccess(ctx context.Context, query string, arg string) ([]audit.AccessRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query access records: %w", err)
	}
	defer rows.Close()

	var records []audit.AccessRecord
	for rows.Next() {
		var (
			r        audit.AccessRecord
			sub, org string
			attrs    []byte
		)
		if err := rows.Scan(&r.ID, &sub, &org, &r.AccessedAt, &attrs, &r.RequestID); err != nil {
			return nil, fmt.Errorf("scan access record: %w", err)
		}
		r.Subject = id.DID(sub)
		r.Organization = id.OrganizationID(org)
		if r.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access records: %w", err)
	}
	return records, nil
}

func encodeAttributes(attrs []string) ([]byte, error) {
	if attrs == nil {
		attrs = []string{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	return b, nil
}

func decodeAttributes(b []byte) ([]string, error) {
	var attrs []string
	if err := json.Unmarshal(b, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}
