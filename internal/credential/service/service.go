// Package service issues and verifies identity credentials with
// salted-digest selective disclosure.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"didgate/internal/credential/metrics"
	"didgate/internal/credential/models"
	"didgate/internal/platform/docstore"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/audit"
	"didgate/pkg/platform/sentinel"
	"didgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks

const (
	DefaultValidity = 365 * 24 * time.Hour
	saltBytes       = 16
)

// Store keeps one record per subject.
// Error Contract:
// - Get returns sentinel.ErrNotFound when the subject has no credential
// - Put returns sentinel.ErrConflict when rev is stale
type Store interface {
	Get(ctx context.Context, subject id.DID) (*models.Record, docstore.Revision, error)
	Put(ctx context.Context, rec *models.Record, rev docstore.Revision) (docstore.Revision, error)
}

// Prover signs and verifies detached proofs.
type Prover interface {
	Sign(ctx context.Context, doc any, signer proof.Signer, purpose string) (*proof.Proof, error)
	Verify(ctx context.Context, doc any, p *proof.Proof, purpose string) error
}

type Option func(*Service)

type Service struct {
	store     Store
	prover    Prover
	issuer    proof.Signer
	issuerDID id.DID
	validity  time.Duration
	logger    *slog.Logger
	auditor   *audit.Logger
	metrics   *metrics.Metrics
}

// New returns an issuer that signs with issuer. The issuer DID is taken from
// the signer's verification method.
func New(store Store, prover Prover, issuer proof.Signer, opts ...Option) (*Service, error) {
	issuerDID, _, err := id.SplitDIDURL(issuer.VerificationMethod())
	if err != nil {
		return nil, fmt.Errorf("issuer verification method: %w", err)
	}
	s := &Service{
		store:     store,
		prover:    prover,
		issuer:    issuer,
		issuerDID: issuerDID,
		validity:  DefaultValidity,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.validity = d
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

// Issuer returns the DID credentials are issued under.
func (s *Service) Issuer() id.DID { return s.issuerDID }

// Issue signs a credential over claims for subject and stores it as the
// subject's current credential, superseding any earlier one.
func (s *Service) Issue(ctx context.Context, subject id.DID, claims map[string]any) (*models.Credential, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveIssueLatency(time.Since(start).Seconds())
		}
	}()

	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject DID is required")
	}
	if err := models.ValidateClaims(claims); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC().Truncate(time.Second)
	cred := &models.Credential{
		Context:           []string{models.ContextCredentialsV1},
		ID:                "urn:uuid:" + uuid.NewString(),
		Type:              []string{models.TypeVerifiable, models.TypeIdentity},
		Issuer:            s.issuerDID,
		IssuanceDate:      now,
		ExpirationDate:    now.Add(s.validity),
		CredentialSubject: models.Subject{models.SubjectIDClaim: subject.String()},
	}
	for name, value := range claims {
		cred.CredentialSubject[name] = value
	}

	disclosures, commitment, err := s.commit(cred.CredentialSubject)
	if err != nil {
		return nil, err
	}
	envelope := models.Envelope(cred.ID, cred.Issuer, cred.IssuanceDate, cred.ExpirationDate, subject, commitment)
	if commitment.Proof, err = s.prover.Sign(ctx, envelope, s.issuer, proof.PurposeAssertionMethod); err != nil {
		return nil, err
	}
	cred.SelectiveDisclosure = commitment
	if cred.Proof, err = s.prover.Sign(ctx, cred, s.issuer, proof.PurposeAssertionMethod); err != nil {
		return nil, err
	}

	superseded, err := s.persist(ctx, &models.Record{Subject: subject, Credential: cred, Disclosures: disclosures})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued(superseded)
	}
	s.auditor.Log(ctx, audit.EventCredentialIssued, "did", subject.String())
	s.logger.InfoContext(ctx, "credential issued",
		"did", subject,
		"credential_id", cred.ID,
		"superseded", superseded,
	)
	return cred, nil
}

// commit salts every claim and returns the disclosures with the unsigned
// commitment over their sorted digests.
func (s *Service) commit(subject models.Subject) ([]models.Disclosure, *models.Commitment, error) {
	names := subject.ClaimNames()
	disclosures := make([]models.Disclosure, 0, len(names))
	digests := make([]string, 0, len(names))
	for _, name := range names {
		salt, err := newSalt()
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate disclosure salt")
		}
		d := models.Disclosure{Salt: salt, Name: name, Value: subject[name]}
		digest, err := d.Digest()
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("claim %s is not JSON-encodable", name))
		}
		disclosures = append(disclosures, d)
		digests = append(digests, digest)
	}
	sort.Strings(digests)
	return disclosures, &models.Commitment{Alg: models.DigestAlg, Digests: digests}, nil
}

func newSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// persist replaces the subject's record using the prior revision, so two
// concurrent issuances cannot both win.
func (s *Service) persist(ctx context.Context, rec *models.Record) (bool, error) {
	var rev docstore.Revision
	_, current, err := s.store.Get(ctx, rec.Subject)
	switch {
	case err == nil:
		rev = current
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return false, dErrors.FromStore(err, "failed to load current credential")
	}

	if _, err := s.store.Put(ctx, rec, rev); err != nil {
		return false, dErrors.FromStore(err, fmt.Sprintf("credential for %s was modified concurrently", rec.Subject))
	}
	return rev != 0, nil
}

// Get returns the subject's current credential. Disclosures never leave the record.
func (s *Service) Get(ctx context.Context, subject id.DID) (*models.Credential, error) {
	rec, err := s.CurrentRecord(ctx, subject)
	if err != nil {
		return nil, err
	}
	return rec.Credential, nil
}

// CurrentRecord returns the subject's credential with its disclosures. For
// in-process callers that build presentations; never serialized to clients.
func (s *Service) CurrentRecord(ctx context.Context, subject id.DID) (*models.Record, error) {
	rec, _, err := s.store.Get(ctx, subject)
	if err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("no credential for %s", subject))
	}
	return rec, nil
}

// Verify checks the full-body proof, the selective-disclosure commitment and
// expiry. Verification failures are reported in the response; only
// infrastructure failures are returned as errors.
func (s *Service) Verify(ctx context.Context, cred *models.Credential) (*models.VerifyResponse, error) {
	res := &models.VerifyResponse{Checks: []string{}}
	fail := func(err error) (*models.VerifyResponse, error) {
		if dErrors.HasCode(err, dErrors.CodeStoreUnavailable) || dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, err
		}
		res.Reason = err.Error()
		if s.metrics != nil {
			s.metrics.IncrementVerification(false)
		}
		return res, nil
	}

	if err := signedBy(cred.Proof, cred.Issuer); err != nil {
		return fail(err)
	}
	if err := s.prover.Verify(ctx, cred, cred.Proof, proof.PurposeAssertionMethod); err != nil {
		return fail(err)
	}
	res.Checks = append(res.Checks, "proof")

	if err := VerifyCommitment(ctx, s.prover, cred); err != nil {
		return fail(err)
	}
	res.Checks = append(res.Checks, "selectiveDisclosure")

	if cred.IsExpired(requestcontext.Now(ctx)) {
		return fail(dErrors.New(dErrors.CodeProofInvalid, "credential expired"))
	}
	res.Checks = append(res.Checks, "expiration")

	res.Valid = true
	if s.metrics != nil {
		s.metrics.IncrementVerification(true)
	}
	return res, nil
}

// VerifyCommitment checks the issuer's proof over the commitment envelope
// rebuilt from cred's outer fields.
func VerifyCommitment(ctx context.Context, prover Prover, cred *models.Credential) error {
	c := cred.SelectiveDisclosure
	if c == nil {
		return dErrors.New(dErrors.CodeProofInvalid, "credential carries no selective disclosure commitment")
	}
	if c.Alg != models.DigestAlg {
		return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("unsupported digest algorithm %q", c.Alg))
	}
	if err := signedBy(c.Proof, cred.Issuer); err != nil {
		return err
	}
	envelope := models.Envelope(cred.ID, cred.Issuer, cred.IssuanceDate, cred.ExpirationDate, cred.CredentialSubject.ID(), c)
	return prover.Verify(ctx, envelope, c.Proof, proof.PurposeAssertionMethod)
}

func signedBy(p *proof.Proof, issuer id.DID) error {
	if p == nil {
		return dErrors.New(dErrors.CodeProofInvalid, "proof missing")
	}
	signer, _, err := id.SplitDIDURL(p.VerificationMethod)
	if err != nil || signer != issuer {
		return dErrors.New(dErrors.CodeProofInvalid, "proof was not made by the credential issuer")
	}
	return nil
}
