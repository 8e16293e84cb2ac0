package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "didgate/pkg/domain-errors"
)

// TestParseDID_Invariants validates the parsing invariant:
// "DIDs must have the form did:<method>:<id> with non-empty segments"
//
// Justification: This is a pure function enforcing a domain invariant
// at trust boundaries.
func TestParseDID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	for _, bad := range []string{"abc123", "did:example", "did::abc", "did:example:", "urn:example:abc", "did:Ex:abc", "did:example:a b"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseDID(bad)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("accepts valid DID", func(t *testing.T) {
		did, err := ParseDID("did:example:abc123")
		require.NoError(t, err)
		assert.Equal(t, DID("did:example:abc123"), did)
		assert.Equal(t, "example", did.Method())
	})

	t.Run("accepts colon-separated method-specific id", func(t *testing.T) {
		_, err := ParseDID("did:web:example.com:users:ana")
		require.NoError(t, err)
	})
}

func TestParseOrganizationID(t *testing.T) {
	org, err := ParseOrganizationID("OrgX")
	require.NoError(t, err)
	assert.Equal(t, OrganizationID("OrgX"), org)

	_, err = ParseOrganizationID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseOrganizationID("org/with/slash")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSplitDIDURL(t *testing.T) {
	did, fragment, err := SplitDIDURL("did:example:abc123#key-1")
	require.NoError(t, err)
	assert.Equal(t, DID("did:example:abc123"), did)
	assert.Equal(t, "key-1", fragment)
	assert.Equal(t, "did:example:abc123#key-1", did.URL("key-1"))

	_, _, err = SplitDIDURL("did:example:abc123")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
