package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "didgate/pkg/domain-errors"
)

func TestNewGrantInvariants(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	g, err := NewGrant("did:example:abc123", "OrgX", []string{"name"}, "did:example:government", "urn:uuid:1", now, GrantTTL)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), g.ExpiresAt)

	for name, build := range map[string]func() (*Grant, error){
		"no subject":    func() (*Grant, error) { return NewGrant("", "OrgX", []string{"name"}, "", "", now, GrantTTL) },
		"no org":        func() (*Grant, error) { return NewGrant("did:example:a", "", []string{"name"}, "", "", now, GrantTTL) },
		"no attributes": func() (*Grant, error) { return NewGrant("did:example:a", "OrgX", nil, "", "", now, GrantTTL) },
		"zero time":     func() (*Grant, error) { return NewGrant("did:example:a", "OrgX", []string{"name"}, "", "", time.Time{}, GrantTTL) },
		"zero ttl":      func() (*Grant, error) { return NewGrant("did:example:a", "OrgX", []string{"name"}, "", "", now, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			_, err := build()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestGrantExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, err := NewGrant("did:example:abc123", "OrgX", []string{"name"}, "", "", issued, GrantTTL)
	require.NoError(t, err)

	assert.True(t, g.IsActive(issued))
	assert.True(t, g.IsActive(g.ExpiresAt))
	assert.False(t, g.IsActive(g.ExpiresAt.Add(time.Nanosecond)))
	assert.Equal(t, StatusActive, g.ComputeStatus(g.ExpiresAt))
	assert.Equal(t, StatusExpired, g.ComputeStatus(g.ExpiresAt.Add(time.Second)))
}

func TestAuthorizeRequestSanitizeAndValidate(t *testing.T) {
	req := &AuthorizeRequest{DID: "did:example:abc123", OrganizationID: "OrgX", Attributes: []string{" name", "name ", "age"}}
	req.Sanitize()
	require.NoError(t, req.Validate())
	assert.ElementsMatch(t, []string{"name", "age"}, req.Attributes)

	bad := &AuthorizeRequest{DID: "abc123", OrganizationID: "OrgX", Attributes: []string{"name"}}
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))

	empty := &AuthorizeRequest{DID: "did:example:abc123", OrganizationID: "OrgX"}
	assert.Error(t, empty.Validate())
}
