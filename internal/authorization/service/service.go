// Package service is the authorization registry: it records which
// organization may read which attributes of which subject, and for how long.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"didgate/internal/authorization/metrics"
	"didgate/internal/authorization/models"
	credmodels "didgate/internal/credential/models"
	idmodels "didgate/internal/identity/models"
	"didgate/internal/platform/docstore"
	presmodels "didgate/internal/presentation/models"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
	"didgate/pkg/validation"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks

// Store persists grants.
// Error Contract:
// - Get returns sentinel.ErrNotFound when no grant exists for the key
// - Put returns sentinel.ErrConflict when rev is stale (0 means create)
// - Remove returns sentinel.ErrConflict on a stale rev, sentinel.ErrNotFound when absent
type Store interface {
	Get(ctx context.Context, subject id.DID, org id.OrganizationID) (*models.Grant, docstore.Revision, error)
	Put(ctx context.Context, g *models.Grant, rev docstore.Revision) (docstore.Revision, error)
	Remove(ctx context.Context, subject id.DID, org id.OrganizationID, rev docstore.Revision) error
	ListBySubject(ctx context.Context, subject id.DID) ([]*models.Grant, error)
}

// DIDResolver confirms the subject is registered.
type DIDResolver interface {
	Resolve(ctx context.Context, did id.DID) (*idmodels.Document, error)
}

// Credentials returns the subject's current credential with its disclosures.
type Credentials interface {
	CurrentRecord(ctx context.Context, subject id.DID) (*credmodels.Record, error)
}

// Presenter builds the presentation attached to a grant.
type Presenter interface {
	Build(ctx context.Context, rec *credmodels.Record, attrs []string, holder proof.Signer) (*presmodels.Presentation, error)
	EncodeJWT(ctx context.Context, p *presmodels.Presentation, holder proof.Signer, audience id.OrganizationID) (string, error)
}

// Wallet hands out the subject's holder signer.
type Wallet interface {
	Signer(ctx context.Context, did id.DID) (proof.Signer, error)
}

type Option func(*Service)

type Service struct {
	store       Store
	dids        DIDResolver
	credentials Credentials
	presenter   Presenter
	wallet      Wallet
	ttl         time.Duration
	logger      *slog.Logger
	auditor     *audit.Logger
	metrics     *metrics.Metrics
}

func New(store Store, dids DIDResolver, credentials Credentials, presenter Presenter, wallet Wallet, opts ...Option) *Service {
	s := &Service{
		store:       store,
		dids:        dids,
		credentials: credentials,
		presenter:   presenter,
		wallet:      wallet,
		ttl:         models.GrantTTL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithGrantTTL overrides the grant lifetime. Policy fixes it at 24h; tests shorten it.
func WithGrantTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(auditor *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Authorize lets org read attrs of subject for the grant TTL, replacing any
// grant org already holds for subject.
func (s *Service) Authorize(ctx context.Context, subject id.DID, org id.OrganizationID, attrs []string) (*models.Grant, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAuthorizeLatency(time.Since(start).Seconds())
		}
	}()

	if err := validateAuthorize(subject, org, attrs); err != nil {
		return nil, err
	}
	if _, err := s.dids.Resolve(ctx, subject); err != nil {
		return nil, err
	}
	rec, err := s.credentials.CurrentRecord(ctx, subject)
	if err != nil {
		return nil, err
	}
	names, err := approvedAttributes(rec.Credential, attrs)
	if err != nil {
		return nil, err
	}

	holder, err := s.wallet.Signer(ctx, subject)
	if err != nil {
		return nil, err
	}
	// full precision: CheckAccess compares against the untruncated request time
	now := requestcontext.Now(ctx).UTC()
	grant, err := models.NewGrant(subject, org, names, rec.Credential.Issuer, rec.Credential.ID, now, s.ttl)
	if err != nil {
		return nil, err
	}
	if grant.Presentation, err = s.presenter.Build(ctx, rec, names, holder); err != nil {
		return nil, err
	}
	if grant.PresentationJWT, err = s.presenter.EncodeJWT(ctx, grant.Presentation, holder, org); err != nil {
		return nil, err
	}

	if err := s.replace(ctx, grant); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementAuthorized(len(names))
	}
	s.auditor.Log(ctx, audit.EventGrantAuthorized,
		"did", subject.String(),
		"org_id", org.String(),
		"attributes", names,
		"decision", "granted",
	)
	return grant, nil
}

func validateAuthorize(subject id.DID, org id.OrganizationID, attrs []string) error {
	if subject.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "did is required")
	}
	if org.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "orgId is required")
	}
	if len(attrs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "attributes must not be empty")
	}
	if len(attrs) > validation.MaxAttributes {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("too many attributes: max %d allowed", validation.MaxAttributes))
	}
	for _, a := range attrs {
		if strings.TrimSpace(a) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "attribute names must not be blank")
		}
	}
	return nil
}

// approvedAttributes checks attrs against the credential's claims and returns
// them as a sorted set. The first unknown attribute fails the whole request.
func approvedAttributes(cred *credmodels.Credential, attrs []string) ([]string, error) {
	valid := cred.CredentialSubject.ClaimNames()
	for _, a := range attrs {
		if _, found := slices.BinarySearch(valid, a); !found {
			return nil, dErrors.NewWithDetails(dErrors.CodeUnknownAttribute,
				fmt.Sprintf("invalid attribute: %s", a),
				map[string]any{"valid_attributes": valid})
		}
	}
	names := slices.Clone(attrs)
	slices.Sort(names)
	return slices.Compact(names), nil
}

// replace writes g over whatever grant currently holds its key, guarded by
// that grant's revision so a concurrent writer surfaces as a conflict.
func (s *Service) replace(ctx context.Context, g *models.Grant) error {
	var rev docstore.Revision
	_, current, err := s.store.Get(ctx, g.Subject, g.Organization)
	switch {
	case err == nil:
		rev = current
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return dErrors.FromStore(err, "failed to load current grant")
	}
	if _, err := s.store.Put(ctx, g, rev); err != nil {
		return dErrors.FromStore(err, fmt.Sprintf("grant for %s on %s was modified concurrently", g.Organization, g.Subject))
	}
	return nil
}

// Revoke deletes org's grant for subject.
func (s *Service) Revoke(ctx context.Context, subject id.DID, org id.OrganizationID) error {
	if subject.IsNil() || org.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "did and orgId are required")
	}
	_, rev, err := s.store.Get(ctx, subject, org)
	if err != nil {
		return dErrors.FromStore(err, fmt.Sprintf("no authorization found for %s on DID %s", org, subject))
	}
	if err := s.store.Remove(ctx, subject, org, rev); err != nil {
		return dErrors.FromStore(err, fmt.Sprintf("grant for %s on %s was modified concurrently", org, subject))
	}

	if s.metrics != nil {
		s.metrics.IncrementRevoked()
	}
	s.auditor.Log(ctx, audit.EventGrantRevoked,
		"did", subject.String(),
		"org_id", org.String(),
		"decision", "revoked",
	)
	return nil
}

// CheckAccess returns org's active grant for subject. It never renews or
// deletes: an expired grant stays stored until re-authorized or revoked.
func (s *Service) CheckAccess(ctx context.Context, subject id.DID, org id.OrganizationID) (*models.Grant, error) {
	grant, _, err := s.store.Get(ctx, subject, org)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.checkFailed("not_authorized")
		return nil, dErrors.New(dErrors.CodeNotAuthorized,
			fmt.Sprintf("%s is not authorized to access %s", org, subject))
	}
	if err != nil {
		s.checkFailed("store_error")
		return nil, dErrors.FromStore(err, "failed to load grant")
	}
	if !grant.IsActive(requestcontext.Now(ctx)) {
		s.checkFailed("expired")
		return nil, dErrors.New(dErrors.CodeAuthorizationExpired,
			fmt.Sprintf("authorization for %s on %s expired at %s", org, subject, grant.ExpiresAt.Format(time.RFC3339)))
	}
	if s.metrics != nil {
		s.metrics.IncrementCheckPassed()
	}
	return grant, nil
}

func (s *Service) checkFailed(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementCheckFailed(reason)
	}
}

// ListBySubject returns every grant held on subject with its current status.
func (s *Service) ListBySubject(ctx context.Context, subject id.DID) ([]*models.GrantWithStatus, error) {
	grants, err := s.store.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list grants")
	}
	now := requestcontext.Now(ctx)
	out := make([]*models.GrantWithStatus, 0, len(grants))
	for _, g := range grants {
		out = append(out, &models.GrantWithStatus{Grant: g, Status: g.ComputeStatus(now)})
	}
	return out, nil
}
