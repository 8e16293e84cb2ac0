// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"regexp"
	"strings"

	dErrors "didgate/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an OrganizationID where a DID is expected.
type (
	// DID is a decentralized identifier of the form did:<method>:<unique-id>.
	DID string
	// OrganizationID names a relying party, e.g. "OrgX".
	OrganizationID string
)

const didScheme = "did"

var (
	didMethodPattern = regexp.MustCompile(`^[a-z0-9]+$`)
	didIDPattern     = regexp.MustCompile(`^[A-Za-z0-9._:%-]+$`)
	orgIDPattern     = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseDID(s string) (DID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "DID cannot be empty")
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != didScheme {
		return "", dErrors.New(dErrors.CodeInvalidInput, "DID must have the form did:<method>:<id>")
	}
	if !didMethodPattern.MatchString(parts[1]) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "DID method must be lowercase alphanumeric")
	}
	if !didIDPattern.MatchString(parts[2]) || strings.HasSuffix(parts[2], ":") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "DID method-specific id is malformed")
	}
	return DID(s), nil
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "organization ID cannot be empty")
	}
	if !orgIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "organization ID must be 1-64 chars of letters, digits, '.', '_' or '-'")
	}
	return OrganizationID(s), nil
}

// String methods - for logging and debugging.

func (d DID) String() string            { return string(d) }
func (o OrganizationID) String() string { return string(o) }

// IsNil checks - used for service-layer validation.

func (d DID) IsNil() bool            { return d == "" }
func (o OrganizationID) IsNil() bool { return o == "" }

// Method returns the DID method segment.
func (d DID) Method() string {
	parts := strings.SplitN(string(d), ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// URL joins a fragment onto the DID, e.g. did:example:abc#key-1.
func (d DID) URL(fragment string) string {
	return string(d) + "#" + fragment
}

// SplitDIDURL separates a DID URL into its DID and fragment.
func SplitDIDURL(s string) (DID, string, error) {
	base, fragment, ok := strings.Cut(s, "#")
	if !ok || fragment == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "DID URL must carry a fragment")
	}
	did, err := ParseDID(base)
	if err != nil {
		return "", "", err
	}
	return did, fragment, nil
}
