package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/gateway/models"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/gateway-mocks.go -package=mocks Service

// Service defines the access gateway operations exposed to relying parties.
type Service interface {
	ReadAttributes(ctx context.Context, subject id.DID, org id.OrganizationID) (*models.AttributeRead, error)
	RequestAccess(ctx context.Context, subject id.DID, org id.OrganizationID, attrs []string) (*models.RequestAccessResponse, error)
	ListAccessRequests(ctx context.Context, org id.OrganizationID) ([]*models.AccessRequest, error)
	ListAccessLog(ctx context.Context, org id.OrganizationID) ([]audit.AccessRecord, error)
}

// Handler serves organization-facing routes. Every route expects the
// organization in context, so mount it behind auth.RequireOrganization.
type Handler struct {
	logger  *slog.Logger
	gateway Service
}

func New(gateway Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		gateway: gateway,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/gateway/subjects/{did}", h.HandleRead)
	r.Post("/gateway/access-requests", h.HandleRequestAccess)
	r.Get("/gateway/access-requests", h.HandleListAccessRequests)
	r.Get("/gateway/access-log", h.HandleAccessLog)
}

func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	org, err := httputil.RequireOrganizationID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	did, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	read, err := h.gateway.ReadAttributes(ctx, did, org)
	if err != nil {
		h.logger.WarnContext(ctx, "attribute read refused",
			"request_id", requestID,
			"did", did,
			"org_id", org,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, read)
}

func (h *Handler) HandleRequestAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	org, err := httputil.RequireOrganizationID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.RequestAccessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.gateway.RequestAccess(ctx, req.Subject(), org, req.Attributes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record access request",
			"request_id", requestID,
			"did", req.DID,
			"org_id", org,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, res)
}

func (h *Handler) HandleListAccessRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	org, err := httputil.RequireOrganizationID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.gateway.ListAccessRequests(ctx, org)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.AccessRequestsResponse{Requests: reqs, Total: len(reqs)})
}

func (h *Handler) HandleAccessLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	org, err := httputil.RequireOrganizationID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.gateway.ListAccessLog(ctx, org)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list access log",
			"request_id", requestID,
			"org_id", org,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.AccessLogResponse{Records: records, Total: len(records)})
}
