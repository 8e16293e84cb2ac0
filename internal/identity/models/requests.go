package models

import (
	credmodels "didgate/internal/credential/models"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/validation"
)

// RegisterRequest carries the claims to bind into the subject's first credential.
type RegisterRequest struct {
	Claims map[string]any `json:"claims"`
}

func (r *RegisterRequest) Validate() error {
	if err := credmodels.ValidateClaims(r.Claims); err != nil {
		return err
	}
	return nil
}

// RegisterResult is returned once a subject is registered. It never carries
// private key material; the holder key stays in the wallet.
type RegisterResult struct {
	DID         id.DID                 `json:"did"`
	DIDDocument *Document              `json:"didDocument"`
	Credential  *credmodels.Credential `json:"credential"`
}

// UpdateServicesRequest replaces the service endpoints of a DID document.
type UpdateServicesRequest struct {
	Services []ServiceEndpoint `json:"services" validate:"dive"`
}

func (r *UpdateServicesRequest) Validate() error {
	if err := validation.CheckSliceCount("services", len(r.Services), validation.MaxServices); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Services))
	for _, svc := range r.Services {
		if seen[svc.ID] {
			return dErrors.New(dErrors.CodeValidation, "service ids must be unique")
		}
		seen[svc.ID] = true
	}
	return validation.Validate(r)
}

// ListEntry is one row of the DID listing.
type ListEntry struct {
	DID         id.DID    `json:"did"`
	DIDDocument *Document `json:"didDocument"`
}
