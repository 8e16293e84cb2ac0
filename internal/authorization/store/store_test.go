package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"didgate/internal/authorization/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New(docstore.NewMemory())
}

func (s *StoreSuite) grant(subject id.DID, org id.OrganizationID) *models.Grant {
	g, err := models.NewGrant(subject, org, []string{"name"}, "did:example:government", "urn:uuid:1", time.Now(), models.GrantTTL)
	s.Require().NoError(err)
	return g
}

func (s *StoreSuite) TestPutGetRemove() {
	rev, err := s.store.Put(s.ctx, s.grant("did:example:abc123", "OrgX"), 0)
	s.Require().NoError(err)

	got, gotRev, err := s.store.Get(s.ctx, "did:example:abc123", "OrgX")
	s.Require().NoError(err)
	s.Equal(rev, gotRev)
	s.Equal([]string{"name"}, got.Attributes)

	s.Require().NoError(s.store.Remove(s.ctx, "did:example:abc123", "OrgX", rev))
	_, _, err = s.store.Get(s.ctx, "did:example:abc123", "OrgX")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestReplaceNeedsCurrentRevision() {
	rev, err := s.store.Put(s.ctx, s.grant("did:example:abc123", "OrgX"), 0)
	s.Require().NoError(err)

	_, err = s.store.Put(s.ctx, s.grant("did:example:abc123", "OrgX"), 0)
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.Put(s.ctx, s.grant("did:example:abc123", "OrgX"), rev)
	s.Require().NoError(err)

	_, err = s.store.Put(s.ctx, s.grant("did:example:abc123", "OrgX"), rev)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreSuite) TestListBySubjectDoesNotLeakAcrossSubjects() {
	for _, g := range []*models.Grant{
		s.grant("did:example:abc123", "OrgY"),
		s.grant("did:example:abc123", "OrgX"),
		s.grant("did:example:abc1234", "OrgX"),
	} {
		_, err := s.store.Put(s.ctx, g, 0)
		s.Require().NoError(err)
	}

	grants, err := s.store.ListBySubject(s.ctx, "did:example:abc123")
	s.Require().NoError(err)
	s.Require().Len(grants, 2)
	s.Equal(id.OrganizationID("OrgX"), grants[0].Organization)
	s.Equal(id.OrganizationID("OrgY"), grants[1].Organization)
}
