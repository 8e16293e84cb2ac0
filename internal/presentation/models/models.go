package models

import (
	"time"

	credmodels "didgate/internal/credential/models"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
)

const (
	ContextCredentialsV1 = credmodels.ContextCredentialsV1
	TypePresentation     = "VerifiablePresentation"
)

// Presentation is a holder-signed, attribute-filtered view of one credential.
// Built once per grant and never mutated.
type Presentation struct {
	Context              []string            `json:"@context"`
	ID                   string              `json:"id"`
	Type                 []string            `json:"type"`
	Holder               id.DID              `json:"holder"`
	VerifiableCredential []DerivedCredential `json:"verifiableCredential"`
	Proof                *proof.Proof        `json:"proof,omitempty"`
}

// DerivedCredential carries the outer fields of the source credential, the
// filtered subject, the disclosures for revealed claims and the issuer's
// commitment. The source credential's full-body proof is not carried: it
// covers claims the holder does not reveal.
type DerivedCredential struct {
	Context             []string                `json:"@context"`
	ID                  string                  `json:"id"`
	Type                []string                `json:"type"`
	Issuer              id.DID                  `json:"issuer"`
	IssuanceDate        time.Time               `json:"issuanceDate"`
	ExpirationDate      time.Time               `json:"expirationDate"`
	CredentialSubject   credmodels.Subject      `json:"credentialSubject"`
	Disclosures         []credmodels.Disclosure `json:"disclosures"`
	SelectiveDisclosure *credmodels.Commitment  `json:"selectiveDisclosure"`
}

// Credential rebuilds the outer credential the issuer committed to.
func (d *DerivedCredential) Credential() *credmodels.Credential {
	return &credmodels.Credential{
		Context:             d.Context,
		ID:                  d.ID,
		Type:                d.Type,
		Issuer:              d.Issuer,
		IssuanceDate:        d.IssuanceDate,
		ExpirationDate:      d.ExpirationDate,
		CredentialSubject:   d.CredentialSubject,
		SelectiveDisclosure: d.SelectiveDisclosure,
	}
}

// DisclosedAttributes returns the revealed claims, without the subject id.
func (p *Presentation) DisclosedAttributes() map[string]any {
	out := map[string]any{}
	for _, vc := range p.VerifiableCredential {
		for name, value := range vc.CredentialSubject {
			if name != credmodels.SubjectIDClaim {
				out[name] = value
			}
		}
	}
	return out
}

// AttributeNames returns the sorted revealed claim names.
func (p *Presentation) AttributeNames() []string {
	if len(p.VerifiableCredential) == 0 {
		return nil
	}
	return p.VerifiableCredential[0].CredentialSubject.ClaimNames()
}

// VerificationResult reports which checks passed. Reason names the first failure.
type VerificationResult struct {
	Valid  bool     `json:"valid"`
	Checks []string `json:"checks"`
	Reason string   `json:"reason,omitempty"`
}

// VerifyRequest accepts either a presentation document or its JWT encoding.
type VerifyRequest struct {
	Presentation *Presentation `json:"presentation,omitempty"`
	JWT          string        `json:"jwt,omitempty"`
}
