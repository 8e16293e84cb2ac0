// Package service is the access gateway: the only path by which an
// organization reads a subject's attributes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	authmodels "didgate/internal/authorization/models"
	"didgate/internal/gateway/metrics"
	"didgate/internal/gateway/models"
	idmodels "didgate/internal/identity/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	s "didgate/pkg/platform/strings"
	"didgate/pkg/platform/tracer"
	"didgate/pkg/requestcontext"
	"didgate/pkg/validation"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks

// Grants checks for an active grant. It must not mutate registry state.
type Grants interface {
	CheckAccess(ctx context.Context, subject id.DID, org id.OrganizationID) (*authmodels.Grant, error)
}

// AccessLog is the synchronous access trail.
type AccessLog interface {
	AppendAccess(ctx context.Context, record audit.AccessRecord) error
	ListByOrganization(ctx context.Context, org id.OrganizationID) ([]audit.AccessRecord, error)
}

// RequestStore keeps access requests.
// Error Contract:
// - Create returns sentinel.ErrConflict if the request id already exists
type RequestStore interface {
	Create(ctx context.Context, r *models.AccessRequest) error
	ListByOrganization(ctx context.Context, org id.OrganizationID) ([]*models.AccessRequest, error)
}

type DIDResolver interface {
	Resolve(ctx context.Context, did id.DID) (*idmodels.Document, error)
}

type Option func(*Service)

type Service struct {
	grants   Grants
	log      AccessLog
	requests RequestStore
	dids     DIDResolver
	tracer   tracer.Tracer
	logger   *slog.Logger
	auditor  *audit.Logger
	metrics  *metrics.Metrics
}

func New(grants Grants, log AccessLog, requests RequestStore, dids DIDResolver, opts ...Option) *Service {
	svc := &Service{
		grants:   grants,
		log:      log,
		requests: requests,
		dids:     dids,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithTracer(t tracer.Tracer) Option {
	return func(svc *Service) {
		svc.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) {
		svc.logger = logger
	}
}

func WithAuditor(auditor *audit.Logger) Option {
	return func(svc *Service) {
		svc.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// ReadAttributes returns the attributes org may read of subject. The values
// come from the presentation stored with the grant, never from the
// credential, and nothing is returned unless the read was recorded.
func (svc *Service) ReadAttributes(ctx context.Context, subject id.DID, org id.OrganizationID) (_ *models.AttributeRead, err error) {
	ctx, span := svc.tracer.Start(ctx, tracer.SpanGatewayRead,
		tracer.String(tracer.AttrSubject, tracer.HashDID(subject.String())),
		tracer.String(tracer.AttrOrganization, org.String()),
	)
	defer func() { span.End(err) }()

	grant, err := svc.grants.CheckAccess(ctx, subject, org)
	if err != nil {
		svc.denied(ctx, subject, org, err)
		return nil, err
	}
	if grant.Presentation == nil {
		svc.readResult("error", 0)
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("grant for %s on %s has no presentation", org, subject))
	}

	attrs := grant.Presentation.DisclosedAttributes()
	names := grant.Presentation.AttributeNames()
	span.SetAttributes(tracer.Int(tracer.AttrAttributes, len(names)))

	record := audit.AccessRecord{
		ID:           uuid.NewString(),
		Subject:      subject,
		Organization: org,
		AccessedAt:   requestcontext.Now(ctx).UTC(),
		Attributes:   names,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if err := svc.appendAccess(ctx, record); err != nil {
		if svc.metrics != nil {
			svc.metrics.IncrementAuditAppendError()
		}
		svc.readResult("error", 0)
		svc.logger.ErrorContext(ctx, "access trail append failed, read refused",
			"did", subject,
			"org_id", org,
			"error", err,
		)
		return nil, dErrors.FromStore(err, "failed to record access")
	}

	svc.readResult("granted", len(names))
	svc.auditor.Log(ctx, audit.EventAttributesRead,
		"did", subject.String(),
		"org_id", org.String(),
		"attributes", names,
		"decision", "granted",
	)
	return &models.AttributeRead{
		Subject:      subject,
		Organization: org,
		Attributes:   attrs,
		ExpiresAt:    grant.ExpiresAt,
		AccessID:     record.ID,
	}, nil
}

func (svc *Service) appendAccess(ctx context.Context, record audit.AccessRecord) (err error) {
	ctx, span := svc.tracer.Start(ctx, tracer.SpanGatewayAudit)
	defer func() { span.End(err) }()
	return svc.log.AppendAccess(ctx, record)
}

func (svc *Service) denied(ctx context.Context, subject id.DID, org id.OrganizationID, err error) {
	code := dErrors.CodeOf(err)
	svc.readResult(string(code), 0)
	if code != dErrors.CodeNotAuthorized && code != dErrors.CodeAuthorizationExpired {
		return
	}
	svc.auditor.Log(ctx, audit.EventAccessDenied,
		"did", subject.String(),
		"org_id", org.String(),
		"decision", "denied",
		"reason", string(code),
	)
}

func (svc *Service) readResult(result string, attributes int) {
	if svc.metrics != nil {
		svc.metrics.IncrementRead(result, attributes)
	}
}

// RequestAccess files a pending request for attrs and tells org how the
// subject can grant it. It does not create or change any grant.
func (svc *Service) RequestAccess(ctx context.Context, subject id.DID, org id.OrganizationID, attrs []string) (*models.RequestAccessResponse, error) {
	if subject.IsNil() || org.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "did and orgId are required")
	}
	attrs = s.SortedSet(attrs)
	if len(attrs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "attributes must not be empty")
	}
	if len(attrs) > validation.MaxAttributes {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("too many attributes: max %d allowed", validation.MaxAttributes))
	}
	if _, err := svc.dids.Resolve(ctx, subject); err != nil {
		return nil, err
	}

	req := &models.AccessRequest{
		ID:           uuid.NewString(),
		Subject:      subject,
		Organization: org,
		Attributes:   attrs,
		Status:       models.RequestPending,
		RequestedAt:  requestcontext.Now(ctx).UTC(),
	}
	if err := svc.requests.Create(ctx, req); err != nil {
		return nil, dErrors.FromStore(err, "failed to store access request")
	}

	if svc.metrics != nil {
		svc.metrics.IncrementAccessRequest()
	}
	svc.auditor.Log(ctx, audit.EventAccessRequested,
		"did", subject.String(),
		"org_id", org.String(),
		"attributes", attrs,
	)
	return &models.RequestAccessResponse{
		Message: fmt.Sprintf("Access request recorded. %s must authorize %s before attributes can be read.", subject, org),
		Request: req,
		Instructions: models.Instructions{
			Method: http.MethodPost,
			Path:   "/did/authorize",
			Body: map[string]any{
				"did":        subject.String(),
				"orgId":      org.String(),
				"attributes": attrs,
			},
		},
	}, nil
}

// ListAccessRequests returns the requests org has filed.
func (svc *Service) ListAccessRequests(ctx context.Context, org id.OrganizationID) ([]*models.AccessRequest, error) {
	reqs, err := svc.requests.ListByOrganization(ctx, org)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list access requests")
	}
	return reqs, nil
}

// ListAccessLog returns org's reads, newest first.
func (svc *Service) ListAccessLog(ctx context.Context, org id.OrganizationID) ([]audit.AccessRecord, error) {
	records, err := svc.log.ListByOrganization(ctx, org)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list access log")
	}
	return records, nil
}
