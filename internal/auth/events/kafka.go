package events

import (
	"context"
	"fmt"
)

// DefaultLoginTopic receives login events.
const DefaultLoginTopic = "admin.login"

// JSONProducer is satisfied by the platform Kafka producer.
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error
}

// KafkaPublisher forwards events to a Kafka topic keyed by admin id, so all
// events for one administrator land on one partition.
type KafkaPublisher struct {
	producer JSONProducer
	topic    string
}

func NewKafkaPublisher(producer JSONProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultLoginTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Name() string { return "kafka" }

func (k *KafkaPublisher) Observe(ctx context.Context, e LoginEvent) error {
	key := e.AdminID
	if key == "" {
		key = e.TenantID
	}
	headers := map[string]string{
		"event_type": string(e.Type),
		"tenant_id":  e.TenantID,
	}
	if err := k.producer.ProduceJSON(ctx, k.topic, key, e, headers); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, k.topic, err)
	}
	return nil
}
