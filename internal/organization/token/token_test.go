package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/requestcontext"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService() *Service {
	s := NewService("test-signing-key", "didgate", "didgate-gateway", 15*time.Minute)
	s.now = func() time.Time { return issuedAt.Add(time.Minute) }
	return s
}

func issue(t *testing.T, s *Service, org id.OrganizationID) string {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), issuedAt)
	raw, jti, err := s.Generate(ctx, org)
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	return raw
}

func Test_GenerateThenValidate(t *testing.T) {
	s := newService()
	raw := issue(t, s, "OrgX")

	claims, err := s.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "OrgX", claims.OrganizationID)
	assert.NotEmpty(t, claims.JTI)
}

func Test_ValidateToken_Expired(t *testing.T) {
	s := newService()
	raw := issue(t, s, "OrgX")
	s.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }

	_, err := s.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.ErrorContains(t, err, "token expired")
}

func Test_ValidateToken_Rejects(t *testing.T) {
	s := newService()

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("invalid-token-string")
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("other signing key", func(t *testing.T) {
		other := NewService("another-key", "didgate", "didgate-gateway", 15*time.Minute)
		_, err := s.ValidateToken(issue(t, other, "OrgX"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other audience", func(t *testing.T) {
		other := NewService("test-signing-key", "didgate", "someone-else", 15*time.Minute)
		_, err := s.ValidateToken(issue(t, other, "OrgX"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("alg none", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			OrganizationID: "OrgX",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "OrgX",
				Issuer:    "didgate",
				Audience:  []string{"didgate-gateway"},
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = s.ValidateToken(raw)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("subject differs from organization", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			OrganizationID: "OrgX",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "OrgY",
				Issuer:    "didgate",
				Audience:  []string{"didgate-gateway"},
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
		}).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = s.ValidateToken(raw)
		assert.ErrorContains(t, err, "invalid token subject")
	})
}

func Test_Generate_RequiresOrganization(t *testing.T) {
	_, _, err := newService().Generate(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
