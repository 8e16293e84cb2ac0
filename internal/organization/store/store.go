// Package store keeps registered relying parties.
package store

import (
	"context"

	"didgate/internal/organization/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
)

const keyPrefix = "organization/"

type Store struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func key(org id.OrganizationID) string { return keyPrefix + org.String() }

// Create fails with sentinel.ErrConflict when the organization exists.
func (s *Store) Create(ctx context.Context, org *models.Organization) error {
	_, err := docstore.PutJSON(ctx, s.docs, key(org.ID), 0, org)
	return err
}

func (s *Store) Get(ctx context.Context, org id.OrganizationID) (*models.Organization, error) {
	o, _, err := docstore.GetJSON[models.Organization](ctx, s.docs, key(org))
	return o, err
}
