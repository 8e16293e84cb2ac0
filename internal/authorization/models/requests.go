package models

import (
	id "didgate/pkg/domain"
	s "didgate/pkg/platform/strings"
	"didgate/pkg/validation"
)

// AuthorizeRequest asks to let an organization read attributes of a subject.
type AuthorizeRequest struct {
	DID            string   `json:"did" validate:"required,did"`
	OrganizationID string   `json:"orgId" validate:"required,orgid"`
	Attributes     []string `json:"attributes" validate:"required,min=1,dive,notblank"`
}

func (r *AuthorizeRequest) Sanitize() {
	r.Attributes = s.DedupeAndTrim(r.Attributes)
}

func (r *AuthorizeRequest) Validate() error {
	if err := validation.CheckSliceCount("attributes", len(r.Attributes), validation.MaxAttributes); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("attribute", r.Attributes, validation.MaxClaimNameLength); err != nil {
		return err
	}
	return validation.Validate(r)
}

// Subject and Organization are only meaningful after Validate succeeds.
func (r *AuthorizeRequest) Subject() id.DID                 { return id.DID(r.DID) }
func (r *AuthorizeRequest) Organization() id.OrganizationID { return id.OrganizationID(r.OrganizationID) }

// RevokeRequest withdraws an organization's grant for a subject.
type RevokeRequest struct {
	DID            string `json:"did" validate:"required,did"`
	OrganizationID string `json:"orgId" validate:"required,orgid"`
}

func (r *RevokeRequest) Validate() error {
	return validation.Validate(r)
}

func (r *RevokeRequest) Subject() id.DID                 { return id.DID(r.DID) }
func (r *RevokeRequest) Organization() id.OrganizationID { return id.OrganizationID(r.OrganizationID) }

// AuthorizeResponse mirrors the grant and echoes the presentation for the holder.
type AuthorizeResponse struct {
	Message string `json:"message"`
	Grant   *Grant `json:"details"`
}

type RevokeResponse struct {
	Message string `json:"message"`
}

type ListResponse struct {
	Grants []*GrantWithStatus `json:"grants"`
	Total  int                `json:"total"`
}
