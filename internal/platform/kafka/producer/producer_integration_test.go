//go:build integration

package producer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"smartparking/internal/platform/kafka/producer"
	"smartparking/pkg/testutil/containers"
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
	s.kafka = containers.Kafka(s.T())
	prod, err := producer.New(producer.Config{
		Brokers:         strings.Join(s.kafka.Brokers, ","),
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close(5 * time.Second)
	}
}

func (s *ProducerIntegrationSuite) TestProduceJSONDeliversKeyedRecord() {
	ctx := context.Background()
	topic := "admin.login.test"
	s.Require().NoError(s.kafka.EnsureTopic(ctx, topic))

	err := s.producer.ProduceJSON(ctx, topic, "admin-1", map[string]string{"email": "admin@acme.com"}, map[string]string{"event": "login"})
	s.Require().NoError(err)

	readCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	record, err := s.kafka.FirstRecord(readCtx, topic, func(r *kgo.Record) bool {
		return string(r.Key) == "admin-1"
	})
	s.Require().NoError(err)
	s.JSONEq(`{"email":"admin@acme.com"}`, string(record.Value))
}

func (s *ProducerIntegrationSuite) TestProduceAfterCloseFails() {
	prod, err := producer.New(producer.Config{Brokers: strings.Join(s.kafka.Brokers, ",")}, nil)
	s.Require().NoError(err)
	prod.Close(time.Second)

	err = prod.Produce(context.Background(), &producer.Message{Topic: "x", Value: []byte("{}")})
	s.ErrorIs(err, producer.ErrClosed)
}
