// Package docstoretest holds the behavioural contract every docstore backend
// must satisfy. Backends run it from their own tests.
package docstoretest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/suite"

	"didgate/internal/platform/docstore"
	"didgate/pkg/platform/sentinel"
)

// ContractSuite exercises a fresh store from New for every test.
type ContractSuite struct {
	suite.Suite
	New   func() docstore.Store
	store docstore.Store
	ctx   context.Context
}

func (s *ContractSuite) SetupTest() {
	s.store = s.New()
	s.ctx = context.Background()
}

func body(v string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"v":%q}`, v))
}

func (s *ContractSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "grant/missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ContractSuite) TestCreateThenGet() {
	rev, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("one")})
	s.Require().NoError(err)
	s.NotZero(rev)

	doc, err := s.store.Get(s.ctx, "grant/a")
	s.Require().NoError(err)
	s.Equal(rev, doc.Revision)
	s.JSONEq(`{"v":"one"}`, string(doc.Body))
}

func (s *ContractSuite) TestCreateExistingConflicts() {
	_, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("one")})
	s.Require().NoError(err)

	_, err = s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("two")})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *ContractSuite) TestReplaceRequiresCurrentRevision() {
	rev1, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("one")})
	s.Require().NoError(err)

	rev2, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Revision: rev1, Body: body("two")})
	s.Require().NoError(err)
	s.Greater(rev2, rev1)

	_, err = s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Revision: rev1, Body: body("stale")})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	doc, err := s.store.Get(s.ctx, "grant/a")
	s.Require().NoError(err)
	s.JSONEq(`{"v":"two"}`, string(doc.Body))
}

func (s *ContractSuite) TestRemove() {
	rev, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("one")})
	s.Require().NoError(err)

	s.Require().ErrorIs(s.store.Remove(s.ctx, "grant/a", rev+1000), sentinel.ErrConflict)
	s.Require().NoError(s.store.Remove(s.ctx, "grant/a", rev))
	s.Require().ErrorIs(s.store.Remove(s.ctx, "grant/a", rev), sentinel.ErrNotFound)

	_, err = s.store.Get(s.ctx, "grant/a")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ContractSuite) TestRevisionsNeverReused() {
	rev1, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("one")})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Remove(s.ctx, "grant/a", rev1))

	rev2, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Body: body("again")})
	s.Require().NoError(err)
	s.Greater(rev2, rev1)

	_, err = s.store.Put(s.ctx, docstore.Document{Key: "grant/a", Revision: rev1, Body: body("stale")})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *ContractSuite) TestListByPrefix() {
	for _, key := range []string{"grant/did:example:b/OrgX", "grant/did:example:a/OrgY", "grant/did:example:a/OrgX", "credential/did:example:a"} {
		_, err := s.store.Put(s.ctx, docstore.Document{Key: key, Body: body(key)})
		s.Require().NoError(err)
	}

	docs, err := s.store.List(s.ctx, "grant/did:example:a/")
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal("grant/did:example:a/OrgX", docs[0].Key)
	s.Equal("grant/did:example:a/OrgY", docs[1].Key)

	all, err := s.store.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 4)
}

// Exactly one of N concurrent writers holding the same revision may win.
func (s *ContractSuite) TestConcurrentReplaceSingleWinner() {
	rev, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/race", Body: body("base")})
	s.Require().NoError(err)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Put(s.ctx, docstore.Document{Key: "grant/race", Revision: rev, Body: body(fmt.Sprint(i))})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(writers-1, conflicts)
}
