package models

import (
	"fmt"
	"strings"

	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/validation"
)

// ValidateClaims enforces the issuance rules: at least one claim, no reserved
// "id" key, non-blank bounded names and JSON-representable values.
func ValidateClaims(claims map[string]any) error {
	if len(claims) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "claims must not be empty")
	}
	if err := validation.CheckSliceCount("claims", len(claims), validation.MaxClaims); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}
	for name, value := range claims {
		if name == SubjectIDClaim {
			return dErrors.New(dErrors.CodeInvalidInput, `claims must not contain the reserved key "id"`)
		}
		if strings.TrimSpace(name) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "claim names must not be blank")
		}
		if len(name) > validation.MaxClaimNameLength {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("claim name exceeds max length of %d", validation.MaxClaimNameLength))
		}
		if value == nil {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("claim %s must have a value", name))
		}
	}
	return nil
}
