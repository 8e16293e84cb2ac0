// Package service builds holder-signed presentations that reveal only an
// approved subset of a credential's claims, and verifies them.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	credmodels "didgate/internal/credential/models"
	credservice "didgate/internal/credential/service"
	"didgate/internal/presentation/metrics"
	"didgate/internal/presentation/models"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/platform/tracer"
	"didgate/pkg/requestcontext"
)

// Check names reported in VerificationResult.Checks, in evaluation order.
const (
	CheckHolderProof  = "holderProof"
	CheckSubject      = "subject"
	CheckCommitment   = "issuerCommitment"
	CheckDisclosures  = "disclosures"
	CheckExpiration   = "expiration"
	DefaultJWTTTL     = 24 * time.Hour
	presentationIDSep = "\x1f"
)

// Prover signs and verifies detached proofs.
type Prover interface {
	Sign(ctx context.Context, doc any, signer proof.Signer, purpose string) (*proof.Proof, error)
	Verify(ctx context.Context, doc any, p *proof.Proof, purpose string) error
}

type Option func(*Service)

type Service struct {
	prover   Prover
	resolver proof.KeyResolver
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	jwtTTL   time.Duration
}

func New(prover Prover, resolver proof.KeyResolver, opts ...Option) *Service {
	s := &Service{
		prover:   prover,
		resolver: resolver,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
		jwtTTL:   DefaultJWTTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithJWTTTL sets the lifetime of encoded presentation JWTs.
func WithJWTTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jwtTTL = d
		}
	}
}

// Build derives a presentation revealing exactly attrs (plus the subject id)
// from rec and signs it with holder under purpose authentication. For the same
// record and attribute set the unsigned body is byte-identical.
func (s *Service) Build(ctx context.Context, rec *credmodels.Record, attrs []string, holder proof.Signer) (p *models.Presentation, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPresentationBuild,
		tracer.String(tracer.AttrSubject, tracer.HashDID(rec.Subject.String())),
		tracer.Int(tracer.AttrAttributes, len(attrs)),
	)
	defer func() { span.End(err) }()

	cred := rec.Credential
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no credential for %s", rec.Subject))
	}
	holderDID, _, err := id.SplitDIDURL(holder.VerificationMethod())
	if err != nil || holderDID != rec.Subject {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "holder key does not belong to the credential subject")
	}

	names := slices.Clone(attrs)
	slices.Sort(names)
	names = slices.Compact(names)

	subject := credmodels.Subject{credmodels.SubjectIDClaim: cred.CredentialSubject[credmodels.SubjectIDClaim]}
	for _, name := range names {
		value, ok := cred.CredentialSubject[name]
		if !ok || name == credmodels.SubjectIDClaim {
			return nil, dErrors.NewWithDetails(dErrors.CodeUnknownAttribute,
				fmt.Sprintf("attribute %s is not a claim of the credential", name),
				map[string]any{"valid_attributes": cred.CredentialSubject.ClaimNames()})
		}
		subject[name] = value
	}

	p = &models.Presentation{
		Context: []string{models.ContextCredentialsV1},
		ID:      presentationID(cred.ID, names),
		Type:    []string{models.TypePresentation},
		Holder:  rec.Subject,
		VerifiableCredential: []models.DerivedCredential{{
			Context:             cred.Context,
			ID:                  cred.ID,
			Type:                cred.Type,
			Issuer:              cred.Issuer,
			IssuanceDate:        cred.IssuanceDate,
			ExpirationDate:      cred.ExpirationDate,
			CredentialSubject:   subject,
			Disclosures:         rec.DisclosuresFor(names),
			SelectiveDisclosure: cred.SelectiveDisclosure,
		}},
	}
	if p.Proof, err = s.prover.Sign(ctx, p, holder, proof.PurposeAuthentication); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementBuilt(len(names))
	}
	return p, nil
}

// presentationID is a name-based UUID over the credential id and sorted
// attribute names, so rebuilding for the same grant yields the same id.
func presentationID(credentialID string, names []string) string {
	name := credentialID + presentationIDSep + strings.Join(names, presentationIDSep)
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Verify runs every check in order and stops at the first failure. Only
// infrastructure failures (store outage) are returned as errors.
func (s *Service) Verify(ctx context.Context, p *models.Presentation) (res *models.VerificationResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPresentationVerify,
		tracer.String(tracer.AttrSubject, tracer.HashDID(p.Holder.String())),
	)
	defer func() { span.End(err) }()

	res = &models.VerificationResult{Checks: []string{}}
	failed := ""
	defer func() {
		if res != nil {
			span.SetAttributes(tracer.Bool(tracer.AttrValid, res.Valid), tracer.String(tracer.AttrFailedCheck, failed))
		}
		if s.metrics != nil && err == nil {
			s.metrics.IncrementVerification(res.Valid, failed)
		}
	}()

	checks := []struct {
		name string
		run  func() error
	}{
		{CheckHolderProof, func() error { return s.verifyHolderProof(ctx, p) }},
		{CheckSubject, func() error { return verifySubjects(p) }},
		{CheckCommitment, func() error { return s.verifyCommitments(ctx, p) }},
		{CheckDisclosures, func() error { return verifyDisclosures(p) }},
		{CheckExpiration, func() error { return verifyExpiry(requestcontext.Now(ctx), p) }},
	}
	for _, c := range checks {
		if cerr := c.run(); cerr != nil {
			if dErrors.HasCode(cerr, dErrors.CodeStoreUnavailable) || dErrors.HasCode(cerr, dErrors.CodeInternal) {
				return nil, cerr
			}
			failed = c.name
			res.Reason = fmt.Sprintf("%s: %s", c.name, cerr.Error())
			return res, nil
		}
		res.Checks = append(res.Checks, c.name)
	}
	res.Valid = true
	return res, nil
}

func (s *Service) verifyHolderProof(ctx context.Context, p *models.Presentation) error {
	if p.Proof == nil {
		return dErrors.New(dErrors.CodeProofInvalid, "proof missing")
	}
	signer, _, err := id.SplitDIDURL(p.Proof.VerificationMethod)
	if err != nil || signer != p.Holder {
		return dErrors.New(dErrors.CodeProofInvalid, "presentation was not signed by its holder")
	}
	return s.prover.Verify(ctx, p, p.Proof, proof.PurposeAuthentication)
}

func verifySubjects(p *models.Presentation) error {
	if len(p.VerifiableCredential) == 0 {
		return dErrors.New(dErrors.CodeProofInvalid, "presentation carries no credential")
	}
	for _, vc := range p.VerifiableCredential {
		if vc.CredentialSubject.ID() != p.Holder {
			return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("credential %s is not about the holder", vc.ID))
		}
	}
	return nil
}

func (s *Service) verifyCommitments(ctx context.Context, p *models.Presentation) error {
	for i := range p.VerifiableCredential {
		if err := credservice.VerifyCommitment(ctx, s.prover, p.VerifiableCredential[i].Credential()); err != nil {
			return err
		}
	}
	return nil
}

// verifyDisclosures requires exactly one disclosure per revealed claim, with
// the same value, whose digest the issuer committed to.
func verifyDisclosures(p *models.Presentation) error {
	for _, vc := range p.VerifiableCredential {
		committed := make(map[string]bool, len(vc.SelectiveDisclosure.Digests))
		for _, d := range vc.SelectiveDisclosure.Digests {
			committed[d] = true
		}

		byName := make(map[string]credmodels.Disclosure, len(vc.Disclosures))
		for _, d := range vc.Disclosures {
			if _, dup := byName[d.Name]; dup {
				return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("duplicate disclosure for %s", d.Name))
			}
			byName[d.Name] = d
		}

		names := vc.CredentialSubject.ClaimNames()
		if len(names) != len(byName) {
			return dErrors.New(dErrors.CodeProofInvalid, "disclosures do not match revealed claims")
		}
		for _, name := range names {
			d, ok := byName[name]
			if !ok {
				return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("claim %s has no disclosure", name))
			}
			same, err := sameJSON(d.Value, vc.CredentialSubject[name])
			if err != nil || !same {
				return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("claim %s does not match its disclosure", name))
			}
			digest, err := d.Digest()
			if err != nil || !committed[digest] {
				return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("disclosure for %s was not committed by the issuer", name))
			}
		}
	}
	return nil
}

func sameJSON(a, b any) (bool, error) {
	ca, err := proof.Canonicalize(a)
	if err != nil {
		return false, err
	}
	cb, err := proof.Canonicalize(b)
	if err != nil {
		return false, err
	}
	return string(ca) == string(cb), nil
}

func verifyExpiry(now time.Time, p *models.Presentation) error {
	for _, vc := range p.VerifiableCredential {
		if now.After(vc.ExpirationDate) {
			return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("credential %s expired", vc.ID))
		}
	}
	return nil
}
