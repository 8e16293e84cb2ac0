// Package postgres is the PostgreSQL docstore backend. Bodies live in a JSONB
// column; revisions come from the documents_rev_seq sequence.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"didgate/internal/platform/docstore"
	"didgate/pkg/platform/sentinel"
)

// Store implements docstore.Store.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL docstore over an open pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) (*docstore.Document, error) {
	var (
		rev  int64
		body []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT rev, body FROM documents WHERE key = $1`, key,
	).Scan(&rev, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, classify("get document", err)
	}
	return &docstore.Document{Key: key, Revision: docstore.Revision(rev), Body: body}, nil
}

func (s *Store) Put(ctx context.Context, doc docstore.Document) (docstore.Revision, error) {
	var (
		rev int64
		err error
	)
	if doc.Revision == 0 {
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO documents (key, rev, body, updated_at)
			VALUES ($1, nextval('documents_rev_seq'), $2, now())
			ON CONFLICT (key) DO NOTHING
			RETURNING rev`,
			doc.Key, []byte(doc.Body),
		).Scan(&rev)
	} else {
		err = s.db.QueryRowContext(ctx, `
			UPDATE documents
			SET rev = nextval('documents_rev_seq'), body = $2, updated_at = now()
			WHERE key = $1 AND rev = $3
			RETURNING rev`,
			doc.Key, []byte(doc.Body), int64(doc.Revision),
		).Scan(&rev)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, classify("put document", err)
	}
	return docstore.Revision(rev), nil
}

func (s *Store) Remove(ctx context.Context, key string, rev docstore.Revision) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = $1 AND rev = $2`, key, int64(rev))
	if err != nil {
		return classify("remove document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("remove document", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE key = $1)`, key,
	).Scan(&exists); err != nil {
		return classify("remove document", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return sentinel.ErrNotFound
}

func (s *Store) List(ctx context.Context, prefix string) ([]*docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, rev, body FROM documents WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, classify("list documents", err)
	}
	defer rows.Close()

	var docs []*docstore.Document
	for rows.Next() {
		var (
			key  string
			rev  int64
			body []byte
		)
		if err := rows.Scan(&key, &rev, &body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &docstore.Document{Key: key, Revision: docstore.Revision(rev), Body: body})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate documents", err)
	}
	return docs, nil
}

// classify marks connection-level failures as unavailable so callers retry
// rather than treating them as internal faults.
func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.As(err, &netErr) ||
		pgconn.Timeout(err) ||
		pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
