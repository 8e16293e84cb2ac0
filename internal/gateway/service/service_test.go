package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmodels "didgate/internal/authorization/models"
	credmodels "didgate/internal/credential/models"
	"didgate/internal/gateway/models"
	"didgate/internal/gateway/service/mocks"
	"didgate/internal/gateway/store"
	idmodels "didgate/internal/identity/models"
	"didgate/internal/platform/docstore"
	presmodels "didgate/internal/presentation/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/audit/publisher"
	"didgate/pkg/platform/audit/store/memory"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
)

const (
	ana  = id.DID("did:example:abc123")
	orgX = id.OrganizationID("OrgX")
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	grants  *mocks.MockGrants
	dids    *mocks.MockDIDResolver
	trail   *memory.InMemoryStore
	events  *memory.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
	s.grants = mocks.NewMockGrants(ctrl)
	s.dids = mocks.NewMockDIDResolver(ctrl)
	s.trail = memory.NewInMemoryStore()
	s.events = memory.NewInMemoryStore()
	s.service = New(s.grants, s.trail, store.New(docstore.NewMemory()), s.dids,
		WithAuditor(audit.NewLogger(nil, publisher.NewPublisher(s.events))))
}

func (s *ServiceSuite) grant(revealed credmodels.Subject) *authmodels.Grant {
	return &authmodels.Grant{
		Subject:      ana,
		Organization: orgX,
		ExpiresAt:    s.now.Add(authmodels.GrantTTL),
		Presentation: &presmodels.Presentation{
			Holder:               ana,
			VerifiableCredential: []presmodels.DerivedCredential{{CredentialSubject: revealed}},
		},
	}
}

func (s *ServiceSuite) TestReadReturnsOnlyPresentedAttributes() {
	s.grants.EXPECT().CheckAccess(gomock.Any(), ana, orgX).
		Return(s.grant(credmodels.Subject{"id": ana.String(), "name": "Ana"}), nil)

	read, err := s.service.ReadAttributes(s.ctx, ana, orgX)

	s.Require().NoError(err)
	s.Equal(map[string]any{"name": "Ana"}, read.Attributes)
	s.Equal(s.now.Add(authmodels.GrantTTL), read.ExpiresAt)

	records, err := s.service.ListAccessLog(s.ctx, orgX)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(read.AccessID, records[0].ID)
	s.Equal([]string{"name"}, records[0].Attributes)
	s.Equal(s.now, records[0].AccessedAt)
	s.Equal("req-1", records[0].RequestID)

	events, err := s.events.ListBySubject(s.ctx, ana)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventAttributesRead), events[0].Action)
}

func (s *ServiceSuite) TestDeniedReadsReturnNothingAndLeaveNoAccessRecord() {
	for _, code := range []dErrors.Code{dErrors.CodeNotAuthorized, dErrors.CodeAuthorizationExpired} {
		s.Run(string(code), func() {
			s.grants.EXPECT().CheckAccess(gomock.Any(), ana, orgX).Return(nil, dErrors.New(code, "denied"))

			read, err := s.service.ReadAttributes(s.ctx, ana, orgX)

			s.Nil(read)
			s.True(dErrors.HasCode(err, code))
		})
	}

	records, err := s.service.ListAccessLog(s.ctx, orgX)
	s.Require().NoError(err)
	s.Empty(records)

	events, err := s.events.ListBySubject(s.ctx, ana)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventAccessDenied), events[0].Action)
	s.Equal("not_authorized", events[0].Reason)
	s.Equal("authorization_expired", events[1].Reason)
}

func (s *ServiceSuite) TestReadFailsWhenAccessTrailFails() {
	ctrl := gomock.NewController(s.T())
	trail := mocks.NewMockAccessLog(ctrl)
	svc := New(s.grants, trail, store.New(docstore.NewMemory()), s.dids)

	s.grants.EXPECT().CheckAccess(gomock.Any(), ana, orgX).
		Return(s.grant(credmodels.Subject{"id": ana.String(), "name": "Ana"}), nil)
	trail.EXPECT().AppendAccess(gomock.Any(), gomock.Any()).
		Return(errors.Join(sentinel.ErrUnavailable, context.DeadlineExceeded))

	read, err := svc.ReadAttributes(s.ctx, ana, orgX)

	s.Nil(read)
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func (s *ServiceSuite) TestReadRejectsGrantWithoutPresentation() {
	g := s.grant(nil)
	g.Presentation = nil
	s.grants.EXPECT().CheckAccess(gomock.Any(), ana, orgX).Return(g, nil)

	_, err := s.service.ReadAttributes(s.ctx, ana, orgX)

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestRequestAccess() {
	s.Run("records a pending request with instructions", func() {
		s.dids.EXPECT().Resolve(gomock.Any(), ana).Return(&idmodels.Document{ID: ana}, nil)

		res, err := s.service.RequestAccess(s.ctx, ana, orgX, []string{"name", " age", "name"})

		s.Require().NoError(err)
		s.Equal(models.RequestPending, res.Request.Status)
		s.Equal([]string{"age", "name"}, res.Request.Attributes)
		s.Equal("/did/authorize", res.Instructions.Path)
		s.Equal("OrgX", res.Instructions.Body["orgId"])

		reqs, err := s.service.ListAccessRequests(s.ctx, orgX)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(res.Request.ID, reqs[0].ID)
	})

	s.Run("unknown subject", func() {
		s.dids.EXPECT().Resolve(gomock.Any(), id.DID("did:example:nobody")).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "DID did:example:nobody not found"))

		_, err := s.service.RequestAccess(s.ctx, "did:example:nobody", orgX, []string{"name"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank attributes", func() {
		_, err := s.service.RequestAccess(s.ctx, ana, orgX, []string{" "})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
