// Package store keeps authorization grants keyed by (subject, organization).
package store

import (
	"context"

	"didgate/internal/authorization/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
)

const keyPrefix = "grant/"

// Store persists grants in the document store. Errors are the docstore
// sentinels, untranslated.
type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func subjectPrefix(subject id.DID) string { return keyPrefix + subject.String() + "/" }

func key(subject id.DID, org id.OrganizationID) string {
	return subjectPrefix(subject) + org.String()
}

func (s *Store) Get(ctx context.Context, subject id.DID, org id.OrganizationID) (*models.Grant, docstore.Revision, error) {
	return docstore.GetJSON[models.Grant](ctx, s.docs, key(subject, org))
}

// Put writes g guarded by rev (0 creates).
func (s *Store) Put(ctx context.Context, g *models.Grant, rev docstore.Revision) (docstore.Revision, error) {
	return docstore.PutJSON(ctx, s.docs, key(g.Subject, g.Organization), rev, g)
}

func (s *Store) Remove(ctx context.Context, subject id.DID, org id.OrganizationID, rev docstore.Revision) error {
	return s.docs.Remove(ctx, key(subject, org), rev)
}

// ListBySubject returns the subject's grants ordered by organization.
func (s *Store) ListBySubject(ctx context.Context, subject id.DID) ([]*models.Grant, error) {
	return docstore.ListJSON[models.Grant](ctx, s.docs, subjectPrefix(subject))
}
