// Package service registers relying parties and exchanges their API secret
// for a bearer token.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"didgate/internal/organization/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
	"didgate/pkg/secrets"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks

// Store persists organizations.
// Error Contract:
// - Create returns sentinel.ErrConflict if the organization exists
// - Get returns sentinel.ErrNotFound when absent
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	Get(ctx context.Context, org id.OrganizationID) (*models.Organization, error)
}

// TokenIssuer signs bearer tokens for an organization.
type TokenIssuer interface {
	Generate(ctx context.Context, org id.OrganizationID) (string, string, error)
}

type Option func(*Service)

type Service struct {
	store   Store
	tokens  TokenIssuer
	logger  *slog.Logger
	auditor *audit.Logger
}

func New(store Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
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

// Register creates org and returns its plaintext API secret. The secret
// cannot be recovered later.
func (s *Service) Register(ctx context.Context, org id.OrganizationID) (string, error) {
	if org.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "organization name is required")
	}
	secret, err := secrets.Generate()
	if err != nil {
		return "", err
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return "", err
	}
	err = s.store.Create(ctx, &models.Organization{
		ID:         org,
		SecretHash: hash,
		CreatedAt:  requestcontext.Now(ctx).UTC(),
	})
	if err != nil {
		return "", dErrors.FromStore(err, fmt.Sprintf("organization %s is already registered", org))
	}

	s.auditor.Log(ctx, audit.EventOrganizationRegistered, "org_id", org.String())
	return secret, nil
}

// IssueToken checks secret and returns a signed bearer token. Unknown
// organizations and wrong secrets are indistinguishable to the caller.
func (s *Service) IssueToken(ctx context.Context, org id.OrganizationID, secret string) (string, error) {
	stored, err := s.store.Get(ctx, org)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", s.deny(ctx, org, "unknown organization")
		}
		return "", dErrors.FromStore(err, "failed to load organization")
	}
	if err := secrets.Verify(secret, stored.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return "", s.deny(ctx, org, "secret mismatch")
		}
		return "", err
	}

	signed, _, err := s.tokens.Generate(ctx, org)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	s.auditor.Log(ctx, audit.EventTokenIssued, "org_id", org.String(), "decision", "granted")
	return signed, nil
}

func (s *Service) deny(ctx context.Context, org id.OrganizationID, reason string) error {
	s.auditor.Log(ctx, audit.EventTokenDenied, "org_id", org.String(), "decision", "denied", "reason", reason)
	return dErrors.New(dErrors.CodeUnauthorized, "invalid organization credentials")
}
