package models

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"didgate/internal/proof"
	id "didgate/pkg/domain"
)

const (
	ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"
	TypeVerifiable       = "VerifiableCredential"
	TypeIdentity         = "IdentityCredential"

	// DigestAlg names how disclosure digests are computed.
	DigestAlg = "sha-256+jcs"

	// SubjectIDClaim is reserved for the subject identifier.
	SubjectIDClaim = "id"
)

// Subject is credentialSubject: the subject id plus claim name to value.
type Subject map[string]any

// ID returns the subject identifier.
func (s Subject) ID() id.DID {
	v, _ := s[SubjectIDClaim].(string)
	return id.DID(v)
}

// ClaimNames returns the sorted claim names, excluding id.
func (s Subject) ClaimNames() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		if k != SubjectIDClaim {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Credential is an issuer-signed verifiable credential. Immutable once issued.
type Credential struct {
	Context             []string     `json:"@context"`
	ID                  string       `json:"id"`
	Type                []string     `json:"type"`
	Issuer              id.DID       `json:"issuer"`
	IssuanceDate        time.Time    `json:"issuanceDate"`
	ExpirationDate      time.Time    `json:"expirationDate"`
	CredentialSubject   Subject      `json:"credentialSubject"`
	SelectiveDisclosure *Commitment  `json:"selectiveDisclosure,omitempty"`
	Proof               *proof.Proof `json:"proof,omitempty"`
}

// IsExpired reports whether now is past the expiration date.
func (c *Credential) IsExpired(now time.Time) bool {
	return now.After(c.ExpirationDate)
}

// Commitment lets a holder reveal a subset of claims: the issuer signs the
// sorted digests of every claim's disclosure, so a revealed disclosure can be
// checked against the issuer's signature without the rest of the claims.
type Commitment struct {
	Alg     string       `json:"alg"`
	Digests []string     `json:"digests"`
	Proof   *proof.Proof `json:"proof,omitempty"`
}

// CommitmentEnvelope is the document the issuer's commitment proof covers.
// It binds the digests to the credential's outer fields.
type CommitmentEnvelope struct {
	CredentialID   string    `json:"credentialId"`
	Issuer         id.DID    `json:"issuer"`
	IssuanceDate   time.Time `json:"issuanceDate"`
	ExpirationDate time.Time `json:"expirationDate"`
	Subject        id.DID    `json:"subject"`
	Alg            string    `json:"alg"`
	Digests        []string  `json:"digests"`
}

// Envelope rebuilds the signed commitment envelope from outer credential fields.
func Envelope(credentialID string, issuer id.DID, issued, expires time.Time, subject id.DID, c *Commitment) CommitmentEnvelope {
	return CommitmentEnvelope{
		CredentialID:   credentialID,
		Issuer:         issuer,
		IssuanceDate:   issued,
		ExpirationDate: expires,
		Subject:        subject,
		Alg:            c.Alg,
		Digests:        c.Digests,
	}
}

// Disclosure is the salted opening of one claim. Only the holder keeps these.
type Disclosure struct {
	Salt  string `json:"salt"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Digest is base64url(sha-256(JCS([salt, name, value]))).
func (d Disclosure) Digest() (string, error) {
	canonical, err := proof.Canonicalize([]any{d.Salt, d.Name, d.Value})
	if err != nil {
		return "", fmt.Errorf("canonicalize disclosure %s: %w", d.Name, err)
	}
	sum := sha256.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Record is what the credential store keeps per subject: the current
// credential and its private disclosures.
type Record struct {
	Subject     id.DID       `json:"subject"`
	Credential  *Credential  `json:"credential"`
	Disclosures []Disclosure `json:"disclosures"`
}

// DisclosuresFor returns the disclosures for names, sorted by name.
func (r *Record) DisclosuresFor(names []string) []Disclosure {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]Disclosure, 0, len(names))
	for _, d := range r.Disclosures {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
