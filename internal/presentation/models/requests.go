package models

import (
	"strings"

	dErrors "didgate/pkg/domain-errors"
)

func (r *VerifyRequest) Sanitize() {
	r.JWT = strings.TrimSpace(r.JWT)
}

func (r *VerifyRequest) Validate() error {
	if r.Presentation == nil && r.JWT == "" {
		return dErrors.New(dErrors.CodeValidation, "presentation or jwt is required")
	}
	if r.Presentation != nil && r.JWT != "" {
		return dErrors.New(dErrors.CodeValidation, "send either presentation or jwt, not both")
	}
	return nil
}
