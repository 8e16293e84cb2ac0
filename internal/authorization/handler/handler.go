package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/authorization/models"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/authorization-mocks.go -package=mocks Service

// Service defines the authorization registry operations exposed over HTTP.
type Service interface {
	Authorize(ctx context.Context, subject id.DID, org id.OrganizationID, attrs []string) (*models.Grant, error)
	Revoke(ctx context.Context, subject id.DID, org id.OrganizationID) error
	ListBySubject(ctx context.Context, subject id.DID) ([]*models.GrantWithStatus, error)
}

type Handler struct {
	logger   *slog.Logger
	registry Service
}

func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/did/authorize", h.HandleAuthorize)
	r.Post("/did/revoke", h.HandleRevoke)
	r.Get("/did/{did}/grants", h.HandleList)
}

func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AuthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	grant, err := h.registry.Authorize(ctx, req.Subject(), req.Organization(), req.Attributes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to authorize organization",
			"request_id", requestID,
			"did", req.DID,
			"org_id", req.OrganizationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization authorized",
		"request_id", requestID,
		"did", grant.Subject,
		"org_id", grant.Organization,
		"attributes", grant.Attributes,
	)
	httputil.WriteJSON(w, http.StatusOK, &models.AuthorizeResponse{
		Message: fmt.Sprintf("Attributes authorized for %s", grant.Organization),
		Grant:   grant,
	})
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.registry.Revoke(ctx, req.Subject(), req.Organization()); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke authorization",
			"request_id", requestID,
			"did", req.DID,
			"org_id", req.OrganizationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "authorization revoked",
		"request_id", requestID,
		"did", req.DID,
		"org_id", req.OrganizationID,
	)
	httputil.WriteJSON(w, http.StatusOK, &models.RevokeResponse{
		Message: fmt.Sprintf("Authorization revoked for %s", req.OrganizationID),
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	did, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	grants, err := h.registry.ListBySubject(ctx, did)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list grants",
			"request_id", requestID,
			"did", did,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.ListResponse{Grants: grants, Total: len(grants)})
}
