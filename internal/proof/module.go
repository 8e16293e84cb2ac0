package proof

import (
	"context"
	"fmt"
	"time"

	dErrors "didgate/pkg/domain-errors"
)

// Module signs with one configured suite and verifies with any registered one.
type Module struct {
	signWith Suite
	suites   map[string]Suite
	resolver KeyResolver
	now      func() time.Time
}

type Option func(*Module)

// WithSuites registers additional suites accepted by Verify.
func WithSuites(suites ...Suite) Option {
	return func(m *Module) {
		for _, s := range suites {
			m.suites[s.Type()] = s
		}
	}
}

// WithClock overrides the proof creation clock.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		m.now = now
	}
}

// NewModule signs new proofs with signWith and resolves keys through resolver.
func NewModule(signWith Suite, resolver KeyResolver, opts ...Option) *Module {
	m := &Module{
		signWith: signWith,
		suites:   map[string]Suite{signWith.Type(): signWith},
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sign returns a proof for purpose made by signer over doc and the proof's
// own options.
func (m *Module) Sign(ctx context.Context, doc any, signer Signer, purpose string) (*Proof, error) {
	p := &Proof{
		Type:               m.signWith.Type(),
		Created:            m.now().UTC().Truncate(time.Second),
		VerificationMethod: signer.VerificationMethod(),
		ProofPurpose:       purpose,
	}
	input, err := SigningInput(doc, p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to canonicalize document")
	}
	if err := m.signWith.Sign(ctx, input, signer, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign document")
	}
	return p, nil
}

// Verify checks p over doc for the expected purpose.
//
// Every cryptographic or resolution failure is CodeProofInvalid; a store
// outage while resolving the key keeps its own code so callers can retry.
func (m *Module) Verify(ctx context.Context, doc any, p *Proof, purpose string) error {
	if p == nil {
		return dErrors.New(dErrors.CodeProofInvalid, "proof missing")
	}
	suite, ok := m.suites[p.Type]
	if !ok {
		return dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("unsupported proof type %q", p.Type))
	}
	if p.ProofPurpose != purpose {
		return dErrors.New(dErrors.CodeProofInvalid,
			fmt.Sprintf("proof purpose %q does not match expected %q", p.ProofPurpose, purpose))
	}

	key, err := m.resolver.ResolveKey(ctx, p.VerificationMethod, p.ProofPurpose)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeStoreUnavailable, dErrors.CodeInternal:
			return err
		default:
			return &dErrors.Error{
				Code:    dErrors.CodeProofInvalid,
				Message: fmt.Sprintf("verification method %s could not be resolved", p.VerificationMethod),
				Err:     err,
			}
		}
	}

	input, err := SigningInput(doc, p)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeProofInvalid, "document could not be canonicalized")
	}
	if err := suite.Verify(ctx, input, p, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeProofInvalid, "proof verification failed")
	}
	return nil
}

// Suite returns the suite used for new proofs.
func (m *Module) Suite() Suite { return m.signWith }
