// Package service is the identifier generator and DID registry: it mints
// DIDs, publishes their documents and hands holder keys to the wallet.
package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"

	credmodels "didgate/internal/credential/models"
	"didgate/internal/identity/models"
	"didgate/internal/platform/docstore"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks

// Store persists DID documents.
// Error Contract:
// - Get returns sentinel.ErrNotFound when the DID is unknown
// - Create returns sentinel.ErrConflict when the DID already exists
// - Update returns sentinel.ErrConflict on a stale revision
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, did id.DID) (*models.Document, docstore.Revision, error)
	Update(ctx context.Context, doc *models.Document, rev docstore.Revision) error
	List(ctx context.Context) ([]*models.Document, error)
}

// Wallet takes custody of freshly minted holder keys.
type Wallet interface {
	Put(ctx context.Context, did id.DID, verificationMethod string, priv ed25519.PrivateKey) error
}

// CredentialIssuer issues the subject's credential at registration.
type CredentialIssuer interface {
	Issue(ctx context.Context, subject id.DID, claims map[string]any) (*credmodels.Credential, error)
}

type Option func(*Service)

type Service struct {
	store   Store
	wallet  Wallet
	issuer  CredentialIssuer
	minter  Minter
	logger  *slog.Logger
	auditor *audit.Logger
}

func New(store Store, wallet Wallet, issuer CredentialIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		wallet: wallet,
		issuer: issuer,
		minter: RandomMinter{Method: "example"},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithMinter replaces the DID minter, e.g. to pin DIDs in tests.
func WithMinter(m Minter) Option {
	return func(s *Service) {
		s.minter = m
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

// Register mints a DID, publishes its document, places the holder key in the
// wallet and issues the subject's credential.
func (s *Service) Register(ctx context.Context, claims map[string]any) (*models.RegisterResult, error) {
	if err := credmodels.ValidateClaims(claims); err != nil {
		return nil, err
	}

	did, keys, err := s.minter.Mint()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint DID")
	}

	doc, err := models.NewDocument(did, keys.Public, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build DID document")
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("DID %s already registered", did))
	}
	if err := s.wallet.Put(ctx, did, doc.AssertionMethod[0], keys.Private); err != nil {
		return nil, err
	}

	credential, err := s.issuer.Issue(ctx, did, claims)
	if err != nil {
		s.logger.ErrorContext(ctx, "DID registered without credential",
			"did", did,
			"error", err,
		)
		return nil, err
	}

	s.auditor.Log(ctx, audit.EventDIDRegistered, "did", did.String())
	return &models.RegisterResult{DID: did, DIDDocument: doc, Credential: credential}, nil
}

// EnsureIssuer publishes (or rotates) the issuer's DID document so that issuer
// proofs resolve. Called once at startup.
func (s *Service) EnsureIssuer(ctx context.Context, did id.DID, pub ed25519.PublicKey) error {
	want, err := models.NewDocument(did, pub, requestcontext.Now(ctx).UTC())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build issuer DID document")
	}

	existing, rev, err := s.store.Get(ctx, did)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.FromStore(err, "failed to load issuer DID document")
		}
		if err := s.store.Create(ctx, want); err != nil {
			return dErrors.FromStore(err, "failed to publish issuer DID document")
		}
		return nil
	}

	if sameKeys(existing, want) {
		return nil
	}
	want.Created = existing.Created
	want.Service = existing.Service
	if err := s.store.Update(ctx, want, rev); err != nil {
		return dErrors.FromStore(err, "failed to rotate issuer DID document")
	}
	s.logger.InfoContext(ctx, "issuer verification key rotated", "did", did)
	return nil
}

func sameKeys(a, b *models.Document) bool {
	if len(a.VerificationMethod) != len(b.VerificationMethod) {
		return false
	}
	for i := range a.VerificationMethod {
		if a.VerificationMethod[i] != b.VerificationMethod[i] {
			return false
		}
	}
	return true
}

// Resolve returns the current DID document.
func (s *Service) Resolve(ctx context.Context, did id.DID) (*models.Document, error) {
	doc, _, err := s.store.Get(ctx, did)
	if err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("DID %s not found", did))
	}
	return doc, nil
}

// List returns every registered DID document in DID order.
func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.FromStore(err, "failed to list DIDs")
	}
	return docs, nil
}

// UpdateServices replaces the document's service endpoints and bumps updated.
// A concurrent update surfaces as a retryable conflict.
func (s *Service) UpdateServices(ctx context.Context, did id.DID, services []models.ServiceEndpoint) (*models.Document, error) {
	doc, rev, err := s.store.Get(ctx, did)
	if err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("DID %s not found", did))
	}

	doc.Service = services
	doc.Updated = requestcontext.Now(ctx).UTC()
	if err := s.store.Update(ctx, doc, rev); err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("DID %s was modified concurrently", did))
	}

	s.auditor.Log(ctx, audit.EventDIDUpdated, "did", did.String())
	return doc, nil
}
