// Package stream publishes audit events to a Kafka topic for downstream
// compliance consumers. Delivery is asynchronous and best-effort; the
// mandatory access trail lives in audit.AccessLog, not here.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"didgate/internal/platform/kafka/producer"
	audit "didgate/pkg/platform/audit"
)

// Producer is the subset of producer.Producer the sink needs.
type Producer interface {
	ProduceAsync(msg *producer.Message) error
}

// Sink implements audit.Sink over a Kafka producer.
type Sink struct {
	producer Producer
	topic    string
}

func New(p Producer, topic string) *Sink {
	return &Sink{producer: p, topic: topic}
}

// message is the wire format on the audit topic.
type message struct {
	Category     string    `json:"category"`
	Action       string    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
	Subject      string    `json:"did,omitempty"`
	Organization string    `json:"orgId,omitempty"`
	Attributes   []string  `json:"attributes,omitempty"`
	Decision     string    `json:"decision,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
}

// Append enqueues the event keyed by subject so a subject's events stay ordered
// within one partition.
func (s *Sink) Append(_ context.Context, event audit.Event) error {
	body, err := json.Marshal(message{
		Category:     string(event.Category),
		Action:       event.Action,
		Timestamp:    event.Timestamp.UTC(),
		Subject:      event.Subject.String(),
		Organization: event.Organization.String(),
		Attributes:   event.Attributes,
		Decision:     event.Decision,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.ProduceAsync(&producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: body,
		Headers: map[string]string{
			"category": string(event.Category),
			"action":   event.Action,
		},
	})
}
