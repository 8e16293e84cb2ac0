package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"didgate/internal/presentation/handler/mocks"
	"didgate/internal/presentation/models"
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
	s.service = mocks.NewMockService(gomock.NewController(s.T()))
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) post(body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/presentations/verify", bytes.NewBufferString(body)))
	return w
}

func (s *HandlerSuite) TestRequestValidation() {
	s.Equal(http.StatusBadRequest, s.post(`{}`).Code)
	s.Equal(http.StatusBadRequest, s.post(`{"jwt":"a.b.c","presentation":{"holder":"did:example:abc123"}}`).Code)
	s.Equal(http.StatusBadRequest, s.post(`not json`).Code)
}

func (s *HandlerSuite) TestVerifyDocument() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(&models.VerificationResult{Valid: true, Checks: []string{"holderProof"}}, nil)

	w := s.post(`{"presentation":{"holder":"did:example:abc123"}}`)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"valid":true`)
}

func (s *HandlerSuite) TestVerifyJWT() {
	s.Run("rejected token is reported, not an error", func() {
		s.service.EXPECT().DecodeJWT(gomock.Any(), "a.b.c").
			Return(nil, dErrors.New(dErrors.CodeProofInvalid, "presentation JWT rejected: token is expired"))

		w := s.post(`{"jwt":" a.b.c "}`)

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"valid":false`)
		s.Contains(w.Body.String(), "expired")
	})

	s.Run("decoded presentation is verified", func() {
		p := &models.Presentation{Holder: "did:example:abc123"}
		s.service.EXPECT().DecodeJWT(gomock.Any(), "a.b.c").Return(p, nil)
		s.service.EXPECT().Verify(gomock.Any(), p).Return(&models.VerificationResult{Valid: true}, nil)

		w := s.post(`{"jwt":"a.b.c"}`)

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("key store outage is 500", func() {
		s.service.EXPECT().DecodeJWT(gomock.Any(), "a.b.c").
			Return(nil, dErrors.New(dErrors.CodeStoreUnavailable, "document store unavailable"))

		w := s.post(`{"jwt":"a.b.c"}`)

		s.Equal(http.StatusInternalServerError, w.Code)
	})
}
