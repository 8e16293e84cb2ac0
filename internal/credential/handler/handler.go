package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/credential/models"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/credential-mocks.go -package=mocks Service

// Service defines the credential operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, subject id.DID) (*models.Credential, error)
	Verify(ctx context.Context, cred *models.Credential) (*models.VerifyResponse, error)
}

type Handler struct {
	logger      *slog.Logger
	credentials Service
}

func New(credentials Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		credentials: credentials,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/credentials/{did}", h.HandleGet)
	r.Post("/credentials/verify", h.HandleVerify)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subject, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.credentials.Get(ctx, subject)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get credential",
			"request_id", requestID,
			"did", subject,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"credential": cred})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.credentials.Verify(ctx, req.Credential)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
