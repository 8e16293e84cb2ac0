package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (int, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("test")

	code, body := serve(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])

	code, body = serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "test", body["environment"])
}

func TestReadiness(t *testing.T) {
	h := New("test")
	h.RegisterCheck("docstore", func(context.Context) error { return nil })

	code, body := serve(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusReady, body["status"])

	t.Run("optional failure degrades", func(t *testing.T) {
		h.RegisterOptionalCheck("kafka", func(context.Context) error { return errors.New("no brokers") })

		code, body := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusDegraded, body["status"])
		checks, _ := body["checks"].(map[string]any)
		kafka, _ := checks["kafka"].(map[string]any)
		assert.Equal(t, "down", kafka["status"])
		assert.Equal(t, "no brokers", kafka["error"])
		assert.Equal(t, false, kafka["required"])
	})

	t.Run("required failure answers 503", func(t *testing.T) {
		h.RegisterCheck("postgres", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("check ran without a deadline")
			}
			return errors.New("connection refused")
		})

		code, body := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, StatusNotReady, body["status"])
		checks, _ := body["checks"].(map[string]any)
		pg, _ := checks["postgres"].(map[string]any)
		assert.Equal(t, "connection refused", pg["error"])
		docs, _ := checks["docstore"].(map[string]any)
		assert.Equal(t, "up", docs["status"])
	})
}
