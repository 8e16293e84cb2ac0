// Package store keeps DID documents keyed by DID.
package store

import (
	"context"

	"didgate/internal/identity/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
)

const keyPrefix = "did/"

// Store persists DID documents. Errors are the docstore sentinels, untranslated.
type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func key(did id.DID) string { return keyPrefix + did.String() }

// Create fails with sentinel.ErrConflict if the DID is already registered.
func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	_, err := docstore.PutJSON(ctx, s.docs, key(doc.ID), 0, doc)
	return err
}

func (s *Store) Get(ctx context.Context, did id.DID) (*models.Document, docstore.Revision, error) {
	return docstore.GetJSON[models.Document](ctx, s.docs, key(did))
}

// Update replaces the document if rev is still current.
func (s *Store) Update(ctx context.Context, doc *models.Document, rev docstore.Revision) error {
	_, err := docstore.PutJSON(ctx, s.docs, key(doc.ID), rev, doc)
	return err
}

func (s *Store) List(ctx context.Context) ([]*models.Document, error) {
	return docstore.ListJSON[models.Document](ctx, s.docs, keyPrefix)
}
