//go:build integration

package containers

import (
	"context"
	"errors"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaContainer is a single-node KRaft broker.
type KafkaContainer struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

func startKafka(ctx context.Context) (*KafkaContainer, error) {
	c, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("smartparking-test"))
	if err != nil {
		return nil, err
	}
	brokers, err := c.Brokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("brokers: %w", err)
	}
	return &KafkaContainer{Container: c, Brokers: brokers}, nil
}

// EnsureTopic creates a single-partition topic unless it already exists.
func (k *KafkaContainer) EnsureTopic(ctx context.Context, topic string) error {
	cl, err := kgo.NewClient(kgo.SeedBrokers(k.Brokers...))
	if err != nil {
		return err
	}
	defer cl.Close()

	resp, err := kadm.NewClient(cl).CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// FirstRecord reads topic from the start and returns the first record
// match accepts. It gives up when ctx ends.
func (k *KafkaContainer) FirstRecord(ctx context.Context, topic string, match func(*kgo.Record) bool) (*kgo.Record, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(k.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	for {
		fetches := cl.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			if r := iter.Next(); match(r) {
				return r, nil
			}
		}
	}
}
