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

	"didgate/internal/identity/handler/mocks"
	"didgate/internal/identity/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

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

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created with did, document and credential", func() {
		did := id.DID("did:example:abc123")
		s.service.EXPECT().Register(gomock.Any(), map[string]any{"name": "Ana", "age": float64(30)}).
			Return(&models.RegisterResult{DID: did, DIDDocument: &models.Document{ID: did}}, nil)

		w := s.do(http.MethodPost, "/did/register", map[string]any{"claims": map[string]any{"name": "Ana", "age": 30}})

		s.Equal(http.StatusCreated, w.Code)
		var body map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("did:example:abc123", body["did"])
		s.NotContains(w.Body.String(), "private")
	})

	s.Run("empty claims are rejected before the service", func() {
		w := s.do(http.MethodPost, "/did/register", map[string]any{"claims": map[string]any{}})

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("bad_request", s.errorCode(w))
	})

	s.Run("store outage maps to 500", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeStoreUnavailable, "document store unavailable"))

		w := s.do(http.MethodPost, "/did/register", map[string]any{"claims": map[string]any{"name": "Ana"}})

		s.Equal(http.StatusInternalServerError, w.Code)
		s.Equal("store_unavailable", s.errorCode(w))
	})
}

func (s *HandlerSuite) TestResolve() {
	s.Run("malformed DID is 400", func() {
		w := s.do(http.MethodGet, "/did/not-a-did", nil)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown DID is 404", func() {
		s.service.EXPECT().Resolve(gomock.Any(), id.DID("did:example:missing")).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "DID did:example:missing not found"))

		w := s.do(http.MethodGet, "/did/did:example:missing", nil)

		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("not_found", s.errorCode(w))
	})

	s.Run("returns document", func() {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		s.service.EXPECT().Resolve(gomock.Any(), id.DID("did:example:abc123")).
			Return(&models.Document{ID: "did:example:abc123", Created: now, Updated: now}, nil)

		w := s.do(http.MethodGet, "/did/did:example:abc123", nil)

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"id":"did:example:abc123"`)
	})
}

func (s *HandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any()).Return([]*models.Document{
		{ID: "did:example:a"},
		{ID: "did:example:b"},
	}, nil)

	w := s.do(http.MethodGet, "/did", nil)

	s.Equal(http.StatusOK, w.Code)
	var body struct {
		DIDs  []models.ListEntry `json:"dids"`
		Total int                `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(2, body.Total)
	s.Equal(id.DID("did:example:b"), body.DIDs[1].DID)
}

func (s *HandlerSuite) TestUpdateServices() {
	s.Run("conflict is retryable 409", func() {
		s.service.EXPECT().UpdateServices(gomock.Any(), id.DID("did:example:abc123"), gomock.Len(1)).
			Return(nil, dErrors.New(dErrors.CodeConflict, "modified concurrently"))

		w := s.do(http.MethodPut, "/did/did:example:abc123/services", map[string]any{
			"services": []map[string]string{{"id": "#bank", "type": "LinkedDomains", "serviceEndpoint": "https://bank.example"}},
		})

		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), `"retryable":true`)
	})

	s.Run("duplicate service ids are rejected", func() {
		svc := map[string]string{"id": "#bank", "type": "LinkedDomains", "serviceEndpoint": "https://bank.example"}
		w := s.do(http.MethodPut, "/did/did:example:abc123/services", map[string]any{
			"services": []map[string]string{svc, svc},
		})

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.errorCode(w))
	})

	s.Run("endpoint must be a url", func() {
		w := s.do(http.MethodPut, "/did/did:example:abc123/services", map[string]any{
			"services": []map[string]string{{"id": "#bank", "type": "LinkedDomains", "serviceEndpoint": "bank"}},
		})

		s.Equal(http.StatusBadRequest, w.Code)
	})
}
