package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"didgate/internal/authorization/handler/mocks"
	"didgate/internal/authorization/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

const ana = id.DID("did:example:abc123")

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func (s *HandlerSuite) TestAuthorize() {
	s.Run("returns the grant", func() {
		issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s.service.EXPECT().Authorize(gomock.Any(), ana, id.OrganizationID("OrgX"), []string{"name"}).
			Return(&models.Grant{
				Subject:      ana,
				Organization: "OrgX",
				Attributes:   []string{"name"},
				IssuedAt:     issued,
				ExpiresAt:    issued.Add(models.GrantTTL),
			}, nil)

		w, body := s.do(http.MethodPost, "/did/authorize", map[string]any{
			"did": ana, "orgId": "OrgX", "attributes": []string{" name ", "name"},
		})

		s.Equal(http.StatusOK, w.Code)
		s.Equal("Attributes authorized for OrgX", body["message"])
		details, _ := body["details"].(map[string]any)
		s.Equal("2026-03-02T12:00:00Z", details["expiresAt"])
	})

	s.Run("unknown attribute carries the valid list", func() {
		s.service.EXPECT().Authorize(gomock.Any(), ana, id.OrganizationID("OrgX"), []string{"salary"}).
			Return(nil, dErrors.NewWithDetails(dErrors.CodeUnknownAttribute, "invalid attribute: salary",
				map[string]any{"valid_attributes": []string{"age", "name"}}))

		w, body := s.do(http.MethodPost, "/did/authorize", map[string]any{
			"did": ana, "orgId": "OrgX", "attributes": []string{"salary"},
		})

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("unknown_attribute", body["error"])
		s.Equal([]any{"age", "name"}, body["valid_attributes"])
	})

	s.Run("empty attributes never reach the service", func() {
		w, _ := s.do(http.MethodPost, "/did/authorize", map[string]any{
			"did": ana, "orgId": "OrgX", "attributes": []string{},
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("malformed DID never reaches the service", func() {
		w, _ := s.do(http.MethodPost, "/did/authorize", map[string]any{
			"did": "abc123", "orgId": "OrgX", "attributes": []string{"name"},
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("concurrent write is a retryable conflict", func() {
		s.service.EXPECT().Authorize(gomock.Any(), ana, id.OrganizationID("OrgX"), []string{"name"}).
			Return(nil, dErrors.New(dErrors.CodeConflict, "grant was modified concurrently"))

		w, body := s.do(http.MethodPost, "/did/authorize", map[string]any{
			"did": ana, "orgId": "OrgX", "attributes": []string{"name"},
		})

		s.Equal(http.StatusConflict, w.Code)
		s.Equal(true, body["retryable"])
	})
}

func (s *HandlerSuite) TestRevoke() {
	s.Run("ok", func() {
		s.service.EXPECT().Revoke(gomock.Any(), ana, id.OrganizationID("OrgX")).Return(nil)

		w, body := s.do(http.MethodPost, "/did/revoke", map[string]any{"did": ana, "orgId": "OrgX"})

		s.Equal(http.StatusOK, w.Code)
		s.Equal("Authorization revoked for OrgX", body["message"])
	})

	s.Run("absent grant is 404", func() {
		s.service.EXPECT().Revoke(gomock.Any(), ana, id.OrganizationID("OrgY")).
			Return(dErrors.New(dErrors.CodeNotFound, "no authorization found for OrgY on DID did:example:abc123"))

		w, body := s.do(http.MethodPost, "/did/revoke", map[string]any{"did": ana, "orgId": "OrgY"})

		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("not_found", body["error"])
	})
}

func (s *HandlerSuite) TestList() {
	s.service.EXPECT().ListBySubject(gomock.Any(), ana).Return([]*models.GrantWithStatus{
		{Grant: &models.Grant{Subject: ana, Organization: "OrgX"}, Status: models.StatusActive},
		{Grant: &models.Grant{Subject: ana, Organization: "OrgY"}, Status: models.StatusExpired},
	}, nil)

	w, body := s.do(http.MethodGet, "/did/did:example:abc123/grants", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(float64(2), body["total"])
	grants, _ := body["grants"].([]any)
	s.Require().Len(grants, 2)
	first, _ := grants[0].(map[string]any)
	s.Equal("OrgX", first["orgId"])
	s.Equal("active", first["status"])
}
