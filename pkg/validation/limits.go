package validation

import (
	"fmt"

	dErrors "didgate/pkg/domain-errors"
)

// MaxBodySize is the maximum allowed request body size (64 KB).
const MaxBodySize = 64 * 1024

// Claim and attribute limits
const (
	// MaxClaims bounds the claims a single credential may carry.
	MaxClaims = 50

	// MaxAttributes bounds the attributes a single grant may disclose.
	MaxAttributes = 50

	// MaxClaimNameLength is the maximum length of a claim or attribute name.
	MaxClaimNameLength = 100

	// MaxServices bounds service endpoints on a DID document.
	MaxServices = 20
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}
