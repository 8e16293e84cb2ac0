// Package docstore is the persistence contract shared by every bounded context:
// a key/value document store with optimistic revisions.
//
// Error Contract:
//   - Get returns sentinel.ErrNotFound when the key is absent.
//   - Put with Revision 0 creates; it returns sentinel.ErrConflict if the key exists.
//   - Put with a non-zero Revision replaces; it returns sentinel.ErrConflict unless
//     the stored revision matches.
//   - Remove returns sentinel.ErrNotFound when absent and sentinel.ErrConflict on a
//     revision mismatch.
//   - Any backend failure to answer within the caller's deadline is
//     sentinel.ErrUnavailable (see Bounded).
//
// Revisions are drawn from a store-wide increasing sequence, so a revision is
// never reused for a key even across delete and re-create.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Revision is an optimistic concurrency token. Zero means "no document".
type Revision uint64

// Document is a stored JSON body and the revision that wrote it.
type Document struct {
	Key      string
	Revision Revision
	Body     json.RawMessage
}

// Store is implemented by the memory, PostgreSQL and Redis backends.
type Store interface {
	Get(ctx context.Context, key string) (*Document, error)
	Put(ctx context.Context, doc Document) (Revision, error)
	Remove(ctx context.Context, key string, rev Revision) error
	List(ctx context.Context, prefix string) ([]*Document, error)
}

// GetJSON loads key and decodes its body into a new T.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, Revision, error) {
	doc, err := s.Get(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	var v T
	if err := json.Unmarshal(doc.Body, &v); err != nil {
		return nil, 0, fmt.Errorf("decode document %s: %w", key, err)
	}
	return &v, doc.Revision, nil
}

// PutJSON encodes v and writes it under key, guarded by rev.
func PutJSON(ctx context.Context, s Store, key string, rev Revision, v any) (Revision, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode document %s: %w", key, err)
	}
	return s.Put(ctx, Document{Key: key, Revision: rev, Body: body})
}

// ListJSON decodes every document under prefix, in key order.
func ListJSON[T any](ctx context.Context, s Store, prefix string) ([]*T, error) {
	docs, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Body, &v); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.Key, err)
		}
		out = append(out, &v)
	}
	return out, nil
}
