// Package tracer is a small tracing abstraction so services can emit spans
// without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: tests
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span.
type Span interface {
	// End completes the span, marking it failed if err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span; the returned context carries it.
	//
	//	ctx, span := t.Start(ctx, tracer.SpanGatewayRead,
	//	    tracer.String(tracer.AttrSubject, tracer.HashDID(did)),
	//	)
	//	defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashDID shortens a DID to a stable digest so spans correlate per subject
// without carrying the identifier itself.
func HashDID(did string) string {
	if did == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(did))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanPresentationBuild  = "presentation.build"
	SpanPresentationVerify = "presentation.verify"
	SpanGatewayRead        = "gateway.read_attributes"
	SpanGatewayAudit       = "gateway.audit_append"
)

// Attribute keys.
const (
	AttrSubject      = "subject.hash"
	AttrOrganization = "organization.id"
	AttrAttributes   = "attributes.count"
	AttrValid        = "valid"
	AttrFailedCheck  = "failed_check"
	AttrProofType    = "proof.type"
)
