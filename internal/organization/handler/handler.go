package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"didgate/internal/organization/models"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/organization-mocks.go -package=mocks Service

type Service interface {
	Register(ctx context.Context, org id.OrganizationID) (string, error)
	IssueToken(ctx context.Context, org id.OrganizationID, secret string) (string, error)
}

type Handler struct {
	logger   *slog.Logger
	orgs     Service
	tokenTTL time.Duration
}

func New(orgs Service, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		orgs:     orgs,
		tokenTTL: tokenTTL,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/organizations", h.HandleRegister)
	r.Post("/organizations/token", h.HandleToken)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	secret, err := h.orgs.Register(ctx, req.Organization())
	if err != nil {
		h.logger.WarnContext(ctx, "failed to register organization",
			"request_id", requestID,
			"org_id", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization registered",
		"request_id", requestID,
		"org_id", req.Name,
	)
	httputil.WriteJSON(w, http.StatusCreated, &models.RegisterResponse{
		OrganizationID: req.Organization(),
		Secret:         secret,
		Message:        "Store this secret now; it will not be shown again. Exchange it at POST /organizations/token.",
	})
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	signed, err := h.orgs.IssueToken(ctx, req.Organization(), req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "token request refused",
			"request_id", requestID,
			"org_id", req.OrganizationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	})
}
