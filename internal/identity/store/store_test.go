package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"didgate/internal/identity/models"
	"didgate/internal/platform/docstore"
	"didgate/pkg/domain"
	"didgate/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = New(docstore.NewMemory())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) doc(did string) *models.Document {
	return &models.Document{ID: domain.DID("did:example:" + did), Controller: domain.DID("did:example:" + did), Created: time.Now(), Updated: time.Now()}
}

func (s *StoreSuite) TestCreateIsExclusive() {
	s.Require().NoError(s.store.Create(s.ctx, s.doc("abc")))
	s.ErrorIs(s.store.Create(s.ctx, s.doc("abc")), sentinel.ErrConflict)
}

func (s *StoreSuite) TestUpdateNeedsCurrentRevision() {
	s.Require().NoError(s.store.Create(s.ctx, s.doc("abc")))
	got, rev, err := s.store.Get(s.ctx, "did:example:abc")
	s.Require().NoError(err)

	got.Updated = got.Updated.Add(time.Minute)
	s.Require().NoError(s.store.Update(s.ctx, got, rev))
	s.ErrorIs(s.store.Update(s.ctx, got, rev), sentinel.ErrConflict)
}

func (s *StoreSuite) TestListReturnsOnlyDocuments() {
	s.Require().NoError(s.store.Create(s.ctx, s.doc("b")))
	s.Require().NoError(s.store.Create(s.ctx, s.doc("a")))

	docs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal("did:example:a", docs[0].ID.String())
}

func (s *StoreSuite) TestGetMissing() {
	_, _, err := s.store.Get(s.ctx, "did:example:nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
