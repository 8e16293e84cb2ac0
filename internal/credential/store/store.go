// Package store keeps one current credential record per subject.
package store

import (
	"context"

	"didgate/internal/credential/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
)

const keyPrefix = "credential/"

// Store persists credential records in the document store. Errors are the
// docstore sentinels, untranslated.
type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func key(subject id.DID) string { return keyPrefix + subject.String() }

// Get returns the subject's current record and its revision.
func (s *Store) Get(ctx context.Context, subject id.DID) (*models.Record, docstore.Revision, error) {
	return docstore.GetJSON[models.Record](ctx, s.docs, key(subject))
}

// Put writes rec guarded by rev (0 creates).
func (s *Store) Put(ctx context.Context, rec *models.Record, rev docstore.Revision) (docstore.Revision, error) {
	return docstore.PutJSON(ctx, s.docs, key(rec.Subject), rev, rec)
}
