// Package producer publishes records to Kafka through franz-go.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	platformstrings "smartparking/pkg/platform/strings"
)

// ErrClosed is returned once Close has started.
var ErrClosed = errors.New("producer is closed")

type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type Config struct {
	// Brokers is a comma-separated seed list.
	Brokers  string
	ClientID string
	// Acks is "0", "1" or "all".
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// clientOptions translates cfg. Idempotent writes require acks=all, so they
// are turned off for the weaker settings.
func (cfg Config) clientOptions() ([]kgo.Opt, error) {
	seeds := platformstrings.SplitList(cfg.Brokers, ",")
	if len(seeds) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(seeds...),
		kgo.RecordRetries(cfg.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	switch cfg.Acks {
	case "", "all", "-1":
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	case "1":
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	case "0":
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	default:
		return nil, fmt.Errorf("kafka acks %q: want 0, 1 or all", cfg.Acks)
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}
	return opts, nil
}

// Producer sends records synchronously. Safe for concurrent use.
type Producer struct {
	client *kgo.Client
	log    *slog.Logger

	// mu is held for reading by in-flight sends so Close can wait them out.
	mu     sync.RWMutex
	closed bool
}

func New(cfg Config, log *slog.Logger) (*Producer, error) {
	opts, err := cfg.clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Producer{client: client, log: log}, nil
}

// Produce blocks until the broker acknowledges msg or ctx ends.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.client.ProduceSync(ctx, msg.record()).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// ProduceJSON encodes v as the record value.
func (p *Producer) ProduceJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", topic, err)
	}
	return p.Produce(ctx, &Message{Topic: topic, Key: []byte(key), Value: value, Headers: headers})
}

// Healthy pings the cluster. It doubles as the readiness check.
func (p *Producer) Healthy(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return p.client.Ping(ctx)
}

// Close stops new sends, flushes what is buffered for up to timeout and
// releases the client. Calling it again is a no-op.
func (p *Producer) Close(timeout time.Duration) {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.mu.Unlock()
	if already {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.log.Warn("kafka producer closed with unflushed records", "error", err)
	}
	p.client.Close()
}

func (m *Message) record() *kgo.Record {
	r := &kgo.Record{Topic: m.Topic, Key: m.Key, Value: m.Value}
	for k, v := range m.Headers {
		r.Headers = append(r.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return r
}
