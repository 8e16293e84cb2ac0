package models

import (
	"time"

	presmodels "didgate/internal/presentation/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

// GrantTTL is the fixed lifetime of a grant from the moment it is authorized.
const GrantTTL = 24 * time.Hour

// Status is a grant's state at a given instant. Revoked grants are deleted,
// so there is no revoked status.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Grant lets one organization read a fixed set of one subject's attributes.
//
// A grant is keyed by (Subject, Organization): re-authorizing replaces it,
// revoking deletes it. Attributes is always a subset of the subject's
// credential claims at authorization time, and Presentation reveals exactly
// those attributes plus the subject id.
type Grant struct {
	Subject         id.DID                   `json:"did"`
	Organization    id.OrganizationID        `json:"orgId"`
	Attributes      []string                 `json:"attributes"`
	Issuer          id.DID                   `json:"issuer"`
	CredentialID    string                   `json:"credentialId"`
	IssuedAt        time.Time                `json:"issuedAt"`
	ExpiresAt       time.Time                `json:"expiresAt"`
	Presentation    *presmodels.Presentation `json:"presentation,omitempty"`
	PresentationJWT string                   `json:"presentationJwt,omitempty"`
}

// NewGrant creates a Grant with domain invariant checks. attrs must already be
// validated against the credential.
func NewGrant(subject id.DID, org id.OrganizationID, attrs []string, issuer id.DID, credentialID string, issuedAt time.Time, ttl time.Duration) (*Grant, error) {
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant subject required")
	}
	if org.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant organization required")
	}
	if len(attrs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant must name at least one attribute")
	}
	if issuedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant time required")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grant ttl must be positive")
	}
	return &Grant{
		Subject:      subject,
		Organization: org,
		Attributes:   attrs,
		Issuer:       issuer,
		CredentialID: credentialID,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(ttl),
	}, nil
}

// IsActive reports whether the grant may be used at now. A grant is still
// valid at exactly ExpiresAt.
func (g *Grant) IsActive(now time.Time) bool {
	return !now.After(g.ExpiresAt)
}

// ComputeStatus reports the grant lifecycle state at now.
func (g *Grant) ComputeStatus(now time.Time) Status {
	if g.IsActive(now) {
		return StatusActive
	}
	return StatusExpired
}

// GrantWithStatus is a grant annotated with its status for listings.
type GrantWithStatus struct {
	*Grant
	Status Status `json:"status"`
}
