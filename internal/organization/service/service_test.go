package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"didgate/internal/organization/service/mocks"
	"didgate/internal/organization/store"
	"didgate/internal/organization/token"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/audit/publisher"
	"didgate/pkg/platform/audit/store/memory"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	tokens  *token.Service
	events  *memory.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Now())
	s.tokens = token.NewService("test-signing-key", "didgate", "didgate-gateway", 15*time.Minute)
	s.events = memory.NewInMemoryStore()
	s.service = New(store.New(docstore.NewMemory()), s.tokens,
		WithAuditor(audit.NewLogger(nil, publisher.NewPublisher(s.events))))
}

func (s *ServiceSuite) TestRegisterThenIssueToken() {
	secret, err := s.service.Register(s.ctx, "OrgX")
	s.Require().NoError(err)
	s.NotEmpty(secret)

	raw, err := s.service.IssueToken(s.ctx, "OrgX", secret)
	s.Require().NoError(err)

	claims, err := s.tokens.ValidateToken(raw)
	s.Require().NoError(err)
	s.Equal("OrgX", claims.OrganizationID)
}

func (s *ServiceSuite) TestRegisterTwiceConflicts() {
	_, err := s.service.Register(s.ctx, "OrgX")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "OrgX")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestIssueTokenDenials() {
	_, err := s.service.Register(s.ctx, "OrgX")
	s.Require().NoError(err)

	_, wrongSecret := s.service.IssueToken(s.ctx, "OrgX", "not-the-secret")
	_, unknownOrg := s.service.IssueToken(s.ctx, "OrgY", "anything")

	s.True(dErrors.HasCode(wrongSecret, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(unknownOrg, dErrors.CodeUnauthorized))
	s.Equal(wrongSecret.Error(), unknownOrg.Error(), "callers cannot tell which part was wrong")

	events, err := s.events.ListBySubject(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(string(audit.EventTokenDenied), events[1].Action)
	s.Equal("secret mismatch", events[1].Reason)
	s.Equal("unknown organization", events[2].Reason)
}

func (s *ServiceSuite) TestStoreOutageIsNotADenial() {
	ctrl := gomock.NewController(s.T())
	orgs := mocks.NewMockStore(ctrl)
	svc := New(orgs, s.tokens)
	orgs.EXPECT().Get(gomock.Any(), id.OrganizationID("OrgX")).
		Return(nil, errors.Join(sentinel.ErrUnavailable, context.DeadlineExceeded))

	_, err := svc.IssueToken(s.ctx, "OrgX", "secret")

	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}
