//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
	"didgate/pkg/platform/audit/store/postgres"
	"didgate/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
	ctx   context.Context
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
	s.ctx = context.Background()
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events", "access_audit"))
}

func (s *AuditStoreSuite) access(subject id.DID, org id.OrganizationID, at time.Time, attrs ...string) audit.AccessRecord {
	rec := audit.AccessRecord{
		ID:           uuid.NewString(),
		Subject:      subject,
		Organization: org,
		AccessedAt:   at,
		Attributes:   attrs,
		RequestID:    "req-" + uuid.NewString(),
	}
	s.Require().NoError(s.store.AppendAccess(s.ctx, rec))
	return rec
}

func (s *AuditStoreSuite) TestAccessLogNewestFirstPerOrganization() {
	ana := id.DID("did:example:ana")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	first := s.access(ana, "OrgX", base, "name")
	second := s.access(ana, "OrgX", base.Add(time.Minute), "name", "age")
	s.access(ana, "OrgY", base, "age")

	got, err := s.store.ListByOrganization(s.ctx, "OrgX")

	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)
	s.Equal([]string{"name", "age"}, got[0].Attributes)
	s.Equal(first.ID, got[1].ID)
	s.True(got[1].AccessedAt.Equal(base))
}

func (s *AuditStoreSuite) TestAccessLogBySubject() {
	s.access("did:example:ana", "OrgX", time.Now(), "name")
	s.access("did:example:bob", "OrgX", time.Now(), "name")

	got, err := s.store.ListAccessBySubject(s.ctx, "did:example:bob")

	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(id.DID("did:example:bob"), got[0].Subject)
}

func (s *AuditStoreSuite) TestEventsRoundTrip() {
	err := s.store.Append(s.ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		Action:       string(audit.EventGrantAuthorized),
		Timestamp:    time.Now().UTC(),
		Subject:      "did:example:ana",
		Organization: "OrgX",
		Attributes:   []string{"name"},
		Decision:     "granted",
		RequestID:    "req-1",
	})
	s.Require().NoError(err)

	events, err := s.store.ListBySubject(s.ctx, "did:example:ana")

	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventGrantAuthorized), events[0].Action)
	s.Equal(id.OrganizationID("OrgX"), events[0].Organization)
	s.Equal([]string{"name"}, events[0].Attributes)
}
