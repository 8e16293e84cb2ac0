package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	credmodels "didgate/internal/credential/models"
	credservice "didgate/internal/credential/service"
	credstore "didgate/internal/credential/store"
	"didgate/internal/platform/docstore"
	"didgate/internal/presentation/models"
	"didgate/internal/proof"
	"didgate/internal/proof/prooftest"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/requestcontext"
)

const subject = id.DID("did:example:abc123")

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	resolver *prooftest.Resolver
	holder   *proof.KeySigner
	record   *credmodels.Record
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.resolver = prooftest.NewResolver()
	issuer := s.resolver.NewSigner("did:example:government#key-1", proof.PurposeAssertionMethod)
	s.holder = s.resolver.NewSigner(subject.URL("key-1"), proof.PurposeAuthentication)
	prover := proof.NewModule(proof.Ed25519Signature2020{}, s.resolver)

	issuance, err := credservice.New(credstore.New(docstore.NewMemory()), prover, issuer, credservice.WithValidity(30*24*time.Hour))
	s.Require().NoError(err)
	_, err = issuance.Issue(s.ctx, subject, map[string]any{"name": "Ana", "age": 30, "address": map[string]any{"city": "Lisbon"}})
	s.Require().NoError(err)
	s.record, err = issuance.CurrentRecord(s.ctx, subject)
	s.Require().NoError(err)

	s.service = New(prover, s.resolver)
}

func (s *ServiceSuite) build(attrs ...string) *models.Presentation {
	p, err := s.service.Build(s.ctx, s.record, attrs, s.holder)
	s.Require().NoError(err)
	return p
}

// roundTrip decodes p the way a relying party receives it.
func (s *ServiceSuite) roundTrip(p *models.Presentation) *models.Presentation {
	raw, err := json.Marshal(p)
	s.Require().NoError(err)
	var out models.Presentation
	s.Require().NoError(json.Unmarshal(raw, &out))
	return &out
}

func (s *ServiceSuite) TestBuildRevealsExactlyApprovedAttributes() {
	p := s.build("name")

	s.Equal(subject, p.Holder)
	s.Equal(proof.PurposeAuthentication, p.Proof.ProofPurpose)
	s.Require().Len(p.VerifiableCredential, 1)
	vc := p.VerifiableCredential[0]
	s.Equal(credmodels.Subject{"id": subject.String(), "name": "Ana"}, vc.CredentialSubject)
	s.Require().Len(vc.Disclosures, 1)
	s.Equal("name", vc.Disclosures[0].Name)
	s.Len(vc.SelectiveDisclosure.Digests, 3)
	s.Equal(map[string]any{"name": "Ana"}, p.DisclosedAttributes())
	s.Equal([]string{"name"}, p.AttributeNames())
}

func (s *ServiceSuite) TestBuildIsDeterministic() {
	a := s.build("name", "age")
	b := s.build("age", "name", "age")

	a.Proof, b.Proof = nil, nil
	ca, err := proof.Canonicalize(a)
	s.Require().NoError(err)
	cb, err := proof.Canonicalize(b)
	s.Require().NoError(err)
	s.Equal(string(ca), string(cb))

	c := s.build("name")
	s.NotEqual(a.ID, c.ID)
}

func (s *ServiceSuite) TestBuildRejects() {
	s.Run("unknown attribute lists valid ones", func() {
		_, err := s.service.Build(s.ctx, s.record, []string{"salary"}, s.holder)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAttribute))
		s.Equal([]string{"address", "age", "name"}, dErrors.DetailsOf(err)["valid_attributes"])
	})

	s.Run("id is not an attribute", func() {
		_, err := s.service.Build(s.ctx, s.record, []string{"id"}, s.holder)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAttribute))
	})

	s.Run("holder key of another subject", func() {
		other := s.resolver.NewSigner("did:example:other#key-1", proof.PurposeAuthentication)
		_, err := s.service.Build(s.ctx, s.record, []string{"name"}, other)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestVerifyValid() {
	res, err := s.service.Verify(s.ctx, s.roundTrip(s.build("name", "address")))

	s.Require().NoError(err)
	s.True(res.Valid, res.Reason)
	s.Equal([]string{CheckHolderProof, CheckSubject, CheckCommitment, CheckDisclosures, CheckExpiration}, res.Checks)
}

func (s *ServiceSuite) TestVerifyDetectsTampering() {
	cases := map[string]struct {
		mutate func(p *models.Presentation)
		failed string
	}{
		"revealed value changed": {
			mutate: func(p *models.Presentation) { p.VerifiableCredential[0].CredentialSubject["name"] = "Bob" },
			failed: CheckHolderProof,
		},
		"extra claim injected": {
			mutate: func(p *models.Presentation) { p.VerifiableCredential[0].CredentialSubject["age"] = 30 },
			failed: CheckHolderProof,
		},
		"holder swapped": {
			mutate: func(p *models.Presentation) { p.Holder = "did:example:other" },
			failed: CheckHolderProof,
		},
		"proof value replaced": {
			mutate: func(p *models.Presentation) { p.Proof.ProofValue = "z3u2en7t5LR2WtQH5PfsqMqVKPXsGj2J8Pqs" },
			failed: CheckHolderProof,
		},
		"proof purpose changed": {
			mutate: func(p *models.Presentation) { p.Proof.ProofPurpose = proof.PurposeAssertionMethod },
			failed: CheckHolderProof,
		},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			p := s.roundTrip(s.build("name"))
			tc.mutate(p)

			res, err := s.service.Verify(s.ctx, p)

			s.Require().NoError(err)
			s.False(res.Valid)
			s.Contains(res.Reason, tc.failed)
		})
	}
}

// A holder who re-signs a doctored presentation still fails the issuer checks.
func (s *ServiceSuite) TestVerifyResignedForgeries() {
	resign := func(p *models.Presentation) *models.Presentation {
		p.Proof = nil
		var err error
		p.Proof, err = proof.NewModule(proof.Ed25519Signature2020{}, s.resolver).Sign(s.ctx, p, s.holder, proof.PurposeAuthentication)
		s.Require().NoError(err)
		return p
	}

	s.Run("claim value forged", func() {
		p := s.roundTrip(s.build("age"))
		p.VerifiableCredential[0].CredentialSubject["age"] = 21
		p.VerifiableCredential[0].Disclosures[0].Value = 21

		res, err := s.service.Verify(s.ctx, resign(p))
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Contains(res.Reason, CheckDisclosures)
	})

	s.Run("claim without disclosure", func() {
		p := s.roundTrip(s.build("age"))
		p.VerifiableCredential[0].CredentialSubject["name"] = "Ana"

		res, err := s.service.Verify(s.ctx, resign(p))
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Contains(res.Reason, CheckDisclosures)
	})

	s.Run("expiration extended", func() {
		p := s.roundTrip(s.build("age"))
		p.VerifiableCredential[0].ExpirationDate = p.VerifiableCredential[0].ExpirationDate.Add(365 * 24 * time.Hour)

		res, err := s.service.Verify(s.ctx, resign(p))
		s.Require().NoError(err)
		s.False(res.Valid)
		s.Contains(res.Reason, CheckCommitment)
	})
}

func (s *ServiceSuite) TestVerifyExpiredCredential() {
	p := s.roundTrip(s.build("name"))

	res, err := s.service.Verify(requestcontext.WithTime(s.ctx, s.now.Add(31*24*time.Hour)), p)

	s.Require().NoError(err)
	s.False(res.Valid)
	s.Contains(res.Reason, CheckExpiration)
}

func (s *ServiceSuite) TestVerifyStoreOutageIsAnError() {
	p := s.roundTrip(s.build("name"))
	s.resolver.Err = dErrors.New(dErrors.CodeStoreUnavailable, "document store unavailable")

	_, err := s.service.Verify(s.ctx, p)

	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func (s *ServiceSuite) TestJWTRoundTrip() {
	p := s.build("name")

	token, err := s.service.EncodeJWT(s.ctx, p, s.holder, "OrgX")
	s.Require().NoError(err)

	decoded, err := s.service.DecodeJWT(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(p.ID, decoded.ID)

	res, err := s.service.Verify(s.ctx, decoded)
	s.Require().NoError(err)
	s.True(res.Valid, res.Reason)
}

func (s *ServiceSuite) TestJWTRejections() {
	p := s.build("name")
	token, err := s.service.EncodeJWT(s.ctx, p, s.holder, "OrgX")
	s.Require().NoError(err)

	s.Run("expired", func() {
		_, err := s.service.DecodeJWT(requestcontext.WithTime(s.ctx, s.now.Add(25*time.Hour)), token)
		s.True(dErrors.HasCode(err, dErrors.CodeProofInvalid))
	})

	s.Run("signed by someone else", func() {
		other := s.resolver.NewSigner("did:example:other#key-1", proof.PurposeAuthentication)
		forged, err := s.service.EncodeJWT(s.ctx, p, other, "OrgX")
		s.Require().NoError(err)

		_, err = s.service.DecodeJWT(s.ctx, forged)
		s.True(dErrors.HasCode(err, dErrors.CodeProofInvalid))
	})

	s.Run("garbage", func() {
		_, err := s.service.DecodeJWT(s.ctx, "not.a.jwt")
		s.True(dErrors.HasCode(err, dErrors.CodeProofInvalid))
	})
}
