package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	contract "salespulse/pkg/contracts/events"
)

// kafkaMessageWriter abstracts kafka.Writer for testability
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes envelopes as JSON messages to a Kafka topic
type KafkaPublisher struct {
	writer kafkaMessageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for topic. brokers is a
// comma-separated list of host:port.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return &KafkaPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// newKafkaPublisherWith injects a writer for tests
func newKafkaPublisherWith(w kafkaMessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Publish writes env keyed by its event id
func (k *KafkaPublisher) Publish(ctx context.Context, env contract.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(env.ID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", k.topic, err)
	}
	return nil
}

// Name identifies the publisher
func (k *KafkaPublisher) Name() string {
	return "kafka"
}

// Close flushes and closes the underlying writer
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
