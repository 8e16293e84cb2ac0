package models

import (
	"time"

	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
)

// RequestStatus tracks an access request. Requests are informational: the
// subject answers one by authorizing, which does not touch the request.
type RequestStatus string

const RequestPending RequestStatus = "pending"

// AccessRequest is an organization asking a subject for attributes.
type AccessRequest struct {
	ID           string            `json:"id"`
	Subject      id.DID            `json:"did"`
	Organization id.OrganizationID `json:"orgId"`
	Attributes   []string          `json:"attributes"`
	Status       RequestStatus     `json:"status"`
	RequestedAt  time.Time         `json:"requestedAt"`
}

// AttributeRead is what a relying party receives from a successful read:
// only the attributes the subject approved.
type AttributeRead struct {
	Subject      id.DID            `json:"did"`
	Organization id.OrganizationID `json:"orgId"`
	Attributes   map[string]any    `json:"attributes"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	AccessID     string            `json:"accessId"`
}

type RequestAccessResponse struct {
	Message      string         `json:"message"`
	Request      *AccessRequest `json:"request"`
	Instructions Instructions   `json:"instructions"`
}

// Instructions tell the organization how the subject grants the request.
type Instructions struct {
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Body   map[string]any `json:"body"`
}

type AccessLogResponse struct {
	Records []audit.AccessRecord `json:"records"`
	Total   int                  `json:"total"`
}

type AccessRequestsResponse struct {
	Requests []*AccessRequest `json:"requests"`
	Total    int              `json:"total"`
}
