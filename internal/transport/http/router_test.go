package httptransport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"didgate/pkg/platform/middleware/auth"
	"didgate/pkg/platform/middleware/request"
)

type routeFunc func(r chi.Router)

func (f routeFunc) Register(r chi.Router) { f(r) }

type fixedValidator struct{}

func (fixedValidator) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{OrganizationID: "OrgX"}, nil
}

type RouterSuite struct {
	suite.Suite
	router http.Handler
}

var sharedLatency = request.NewMetrics()

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(Routes{
		Public:    []Registrar{routeFunc(func(r chi.Router) { r.Get("/did", ok) })},
		Protected: []Registrar{routeFunc(func(r chi.Router) { r.Get("/gateway/access-log", ok) })},
	}, fixedValidator{}, sharedLatency, logger)
}

func (s *RouterSuite) serve(method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestPublicRouteNeedsNoToken() {
	rec := s.serve(http.MethodGet, "/did", "")
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestProtectedRouteRejectsMissingToken() {
	rec := s.serve(http.MethodGet, "/gateway/access-log", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestProtectedRouteRejectsInvalidToken() {
	rec := s.serve(http.MethodGet, "/gateway/access-log", "forged")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestProtectedRouteAcceptsValidToken() {
	rec := s.serve(http.MethodGet, "/gateway/access-log", "good")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMetricsExposed() {
	s.serve(http.MethodGet, "/did", "")
	rec := s.serve(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.True(strings.Contains(body, "didgate_endpoint_latency_seconds"))
	s.True(strings.Contains(body, `endpoint="/did"`))
	s.True(strings.Contains(body, `status="2xx"`))
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Routes{
		Public: []Registrar{routeFunc(func(r chi.Router) {
			r.Post("/did/register", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
		})},
	}, fixedValidator{}, sharedLatency, logger)

	req := httptest.NewRequest(http.MethodPost, "/did/register", strings.NewReader("name=ana"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
