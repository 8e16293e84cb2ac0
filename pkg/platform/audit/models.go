package audit

import (
	"context"
	"time"

	id "didgate/pkg/domain"
)

// Event is emitted from domain logic to capture key lifecycle actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	Subject      id.DID
	Organization id.OrganizationID
	Action       string
	Attributes   []string
	Decision     string
	Reason       string
	RequestID    string
}

type AuditEvent string

const (
	EventDIDRegistered          AuditEvent = "did_registered"
	EventDIDUpdated             AuditEvent = "did_updated"
	EventCredentialIssued       AuditEvent = "credential_issued"
	EventGrantAuthorized        AuditEvent = "grant_authorized"
	EventGrantRevoked           AuditEvent = "grant_revoked"
	EventAttributesRead         AuditEvent = "attributes_read"
	EventAccessDenied           AuditEvent = "access_denied"
	EventAccessRequested        AuditEvent = "access_requested"
	EventOrganizationRegistered AuditEvent = "organization_registered"
	EventTokenIssued            AuditEvent = "token_issued"
	EventTokenDenied            AuditEvent = "token_denied"
)

// EventCategory routes events to retention tiers.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategorySecurity   EventCategory = "security"
	CategoryOperations EventCategory = "operations"
)

// Category maps an event to its category. Unknown events are operations.
func (e AuditEvent) Category() EventCategory {
	switch e {
	case EventDIDRegistered, EventCredentialIssued, EventGrantAuthorized, EventGrantRevoked, EventAttributesRead:
		return CategoryCompliance
	case EventAccessDenied, EventTokenIssued, EventTokenDenied:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}

// AccessRecord is the append-only trail of a successful attribute read.
// Never updated or deleted.
type AccessRecord struct {
	ID           string            `json:"id"`
	Subject      id.DID            `json:"did"`
	Organization id.OrganizationID `json:"orgId"`
	AccessedAt   time.Time         `json:"accessedAt"`
	Attributes   []string          `json:"attributes"`
	RequestID    string            `json:"requestId,omitempty"`
}

// Sink receives lifecycle events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a sink that can be read back.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subject id.DID) ([]Event, error)
}

// AccessLog is the mandatory, synchronous access trail. A read that cannot be
// recorded must not be served.
type AccessLog interface {
	AppendAccess(ctx context.Context, record AccessRecord) error
	ListByOrganization(ctx context.Context, org id.OrganizationID) ([]AccessRecord, error)
	ListAccessBySubject(ctx context.Context, subject id.DID) ([]AccessRecord, error)
}
