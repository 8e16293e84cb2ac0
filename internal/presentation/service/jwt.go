package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"didgate/internal/presentation/models"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/requestcontext"
)

// vpClaims is the VP-JWT payload: the presentation under "vp", issued by its holder.
type vpClaims struct {
	VP *models.Presentation `json:"vp"`
	jwt.RegisteredClaims
}

// EncodeJWT wraps a signed presentation in a compact EdDSA JWT addressed to
// audience. The kid header names the holder's verification method.
func (s *Service) EncodeJWT(ctx context.Context, p *models.Presentation, holder proof.Signer, audience id.OrganizationID) (string, error) {
	now := requestcontext.Now(ctx)
	claims := vpClaims{
		VP: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Holder.String(),
			Subject:   p.Holder.String(),
			Audience:  jwt.ClaimStrings{audience.String()},
			ID:        p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = holder.VerificationMethod()

	signed, err := token.SignedString(holder)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign presentation JWT")
	}
	return signed, nil
}

// DecodeJWT checks the JWT signature against the holder's authentication key
// and returns the embedded presentation. The presentation itself still needs Verify.
func (s *Service) DecodeJWT(ctx context.Context, raw string) (*models.Presentation, error) {
	var resolveErr error
	claims := &vpClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			vm, _ := t.Header["kid"].(string)
			did, _, err := id.SplitDIDURL(vm)
			if err != nil {
				return nil, err
			}
			if claims.Issuer != did.String() {
				return nil, errors.New("kid does not belong to the token issuer")
			}
			key, err := s.resolver.ResolveKey(ctx, vm, proof.PurposeAuthentication)
			if err != nil {
				resolveErr = err
				return nil, err
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
		jwt.WithExpirationRequired(),
	)
	if resolveErr != nil && (dErrors.HasCode(resolveErr, dErrors.CodeStoreUnavailable) || dErrors.HasCode(resolveErr, dErrors.CodeInternal)) {
		return nil, resolveErr
	}
	if err != nil {
		return nil, &dErrors.Error{
			Code:    dErrors.CodeProofInvalid,
			Message: fmt.Sprintf("presentation JWT rejected: %v", err),
			Err:     err,
		}
	}
	if claims.VP == nil {
		return nil, dErrors.New(dErrors.CodeProofInvalid, "presentation JWT carries no vp claim")
	}
	if claims.VP.Holder.String() != claims.Subject || claims.VP.ID != claims.ID {
		return nil, dErrors.New(dErrors.CodeProofInvalid, "presentation JWT claims do not match the embedded presentation")
	}
	return claims.VP, nil
}
