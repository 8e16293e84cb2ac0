package models

import dErrors "didgate/pkg/domain-errors"

// VerifyRequest wraps a credential submitted for verification.
type VerifyRequest struct {
	Credential *Credential `json:"credential"`
}

func (r *VerifyRequest) Validate() error {
	if r.Credential == nil {
		return dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	return nil
}

// VerifyResponse reports the outcome of credential verification.
type VerifyResponse struct {
	Valid  bool     `json:"valid"`
	Checks []string `json:"checks"`
	Reason string   `json:"reason,omitempty"`
}
