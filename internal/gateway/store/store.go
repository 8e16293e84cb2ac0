// Package store keeps pending access requests, keyed so an organization can
// list everything it has asked for.
package store

import (
	"context"

	"didgate/internal/gateway/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
)

const keyPrefix = "access-request/"

type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func orgPrefix(org id.OrganizationID) string { return keyPrefix + org.String() + "/" }

func key(r *models.AccessRequest) string {
	return orgPrefix(r.Organization) + r.Subject.String() + "/" + r.ID
}

// Create stores a new request. Request ids are unique, so an existing key is
// a conflict.
func (s *Store) Create(ctx context.Context, r *models.AccessRequest) error {
	_, err := docstore.PutJSON(ctx, s.docs, key(r), 0, r)
	return err
}

// ListByOrganization returns the organization's requests ordered by subject.
func (s *Store) ListByOrganization(ctx context.Context, org id.OrganizationID) ([]*models.AccessRequest, error) {
	return docstore.ListJSON[models.AccessRequest](ctx, s.docs, orgPrefix(org))
}
