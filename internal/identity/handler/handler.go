package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"didgate/internal/identity/models"
	id "didgate/pkg/domain"
	"didgate/pkg/platform/httputil"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/identity-mocks.go -package=mocks Service

// Service defines the DID registry operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, claims map[string]any) (*models.RegisterResult, error)
	Resolve(ctx context.Context, did id.DID) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	UpdateServices(ctx context.Context, did id.DID, services []models.ServiceEndpoint) (*models.Document, error)
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
	r.Post("/did/register", h.HandleRegister)
	r.Get("/did", h.HandleList)
	r.Get("/did/{did}", h.HandleResolve)
	r.Put("/did/{did}/services", h.HandleUpdateServices)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.registry.Register(ctx, req.Claims)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register DID",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "DID registered",
		"request_id", requestID,
		"did", res.DID,
	)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	docs, err := h.registry.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list DIDs",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	entries := make([]models.ListEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, models.ListEntry{DID: doc.ID, DIDDocument: doc})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"dids":  entries,
		"total": len(entries),
	})
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	did, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.registry.Resolve(ctx, did)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve DID",
			"request_id", requestID,
			"did", did,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) HandleUpdateServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	did, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateServicesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.registry.UpdateServices(ctx, did, req.Services)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update DID services",
			"request_id", requestID,
			"did", did,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}
