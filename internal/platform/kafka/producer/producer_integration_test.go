//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"didgate/internal/audit/stream"
	"didgate/internal/platform/kafka"
	"didgate/internal/platform/kafka/producer"
	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
	"didgate/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	cfg := kafka.DefaultProducerConfig(s.kafka.Brokers)
	cfg.DeliveryTimeout = 10 * time.Second
	prod, err := producer.New(cfg, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.NoError(s.producer.Close(ctx))
	}
}

func (s *ProducerIntegrationSuite) consume(topic string, match func(*kgo.Record) bool) *kgo.Record {
	consumer, err := s.kafka.NewConsumer(topic)
	s.Require().NoError(err)
	defer consumer.Close()
	return s.kafka.WaitForRecord(context.Background(), consumer, 10*time.Second, match)
}

func (s *ProducerIntegrationSuite) TestProduceWaitsForAck() {
	ctx := context.Background()
	topic := "didgate-produce-sync"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("did:example:ana"),
		Value:   []byte(`{"action":"probe"}`),
		Headers: map[string]string{"source": "test"},
	})
	s.Require().NoError(err)

	record := s.consume(topic, func(r *kgo.Record) bool { return string(r.Key) == "did:example:ana" })
	s.Require().NotNil(record)
	s.Equal(`{"action":"probe"}`, string(record.Value))
	s.Require().Len(record.Headers, 1)
	s.Equal("source", record.Headers[0].Key)
}

func (s *ProducerIntegrationSuite) TestAuditStreamDeliversEvent() {
	ctx := context.Background()
	topic := "didgate-audit-it"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 3))

	sink := stream.New(s.producer, topic)
	err := sink.Append(ctx, audit.Event{
		Category:     audit.CategoryCompliance,
		Action:       string(audit.EventAttributesRead),
		Timestamp:    time.Now(),
		Subject:      id.DID("did:example:ana"),
		Organization: id.OrganizationID("OrgX"),
		Attributes:   []string{"name"},
		Decision:     "granted",
	})
	s.Require().NoError(err)

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(s.producer.Flush(flushCtx))

	record := s.consume(topic, func(r *kgo.Record) bool { return string(r.Key) == "did:example:ana" })
	s.Require().NotNil(record)

	var got map[string]any
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal("OrgX", got["orgId"])
	s.Equal(string(audit.EventAttributesRead), got["action"])
}

func (s *ProducerIntegrationSuite) TestClosedProducerRejects() {
	prod, err := producer.New(kafka.DefaultProducerConfig(s.kafka.Brokers), nil)
	s.Require().NoError(err)
	s.Require().NoError(prod.Close(context.Background()))

	s.Error(prod.ProduceAsync(&producer.Message{Topic: "x", Value: []byte("v")}))
	s.Error(prod.Check(context.Background()))
}
