package models

import (
	id "didgate/pkg/domain"
	s "didgate/pkg/platform/strings"
	"didgate/pkg/validation"
)

// RequestAccessRequest is sent by an authenticated organization.
type RequestAccessRequest struct {
	DID        string   `json:"did" validate:"required,did"`
	Attributes []string `json:"attributes" validate:"required,min=1,dive,notblank"`
}

func (r *RequestAccessRequest) Sanitize() {
	r.Attributes = s.DedupeAndTrim(r.Attributes)
}

func (r *RequestAccessRequest) Validate() error {
	if err := validation.CheckSliceCount("attributes", len(r.Attributes), validation.MaxAttributes); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("attribute", r.Attributes, validation.MaxClaimNameLength); err != nil {
		return err
	}
	return validation.Validate(r)
}

func (r *RequestAccessRequest) Subject() id.DID { return id.DID(r.DID) }
