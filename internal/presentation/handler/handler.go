package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/presentation/models"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/presentation-mocks.go -package=mocks Service

// Service defines the presentation operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, p *models.Presentation) (*models.VerificationResult, error)
	DecodeJWT(ctx context.Context, raw string) (*models.Presentation, error)
}

type Handler struct {
	logger        *slog.Logger
	presentations Service
}

func New(presentations Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		presentations: presentations,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/presentations/verify", h.HandleVerify)
}

// HandleVerify answers 200 with valid=false for presentations that fail
// verification; only malformed requests and infrastructure failures are errors.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p := req.Presentation
	if req.JWT != "" {
		decoded, err := h.presentations.DecodeJWT(ctx, req.JWT)
		if dErrors.HasCode(err, dErrors.CodeProofInvalid) {
			httputil.WriteJSON(w, http.StatusOK, &models.VerificationResult{
				Checks: []string{},
				Reason: err.Error(),
			})
			return
		}
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to decode presentation JWT",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		p = decoded
	}

	res, err := h.presentations.Verify(ctx, p)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify presentation",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "presentation verified",
		"request_id", requestID,
		"holder", p.Holder,
		"valid", res.Valid,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
