package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of kafka.Writer the mirror needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror appends every lifecycle envelope to a Kafka topic keyed by
// participant channel, giving downstream consumers a durable audit trail.
type KafkaMirror struct {
	writer MessageWriter
}

// NewKafkaWriter builds an async writer for topic. Delivery failures are
// reported through logger.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka mirror write failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
}

// NewKafkaMirror wraps writer.
func NewKafkaMirror(writer MessageWriter) *KafkaMirror {
	return &KafkaMirror{writer: writer}
}

// Publish implements Broadcaster.
func (k *KafkaMirror) Publish(ctx context.Context, channelID string, event EventName, payload any) error {
	env, err := NewEnvelope(channelID, event, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(channelID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka mirror %s: %w", event, err)
	}
	return nil
}

// Close flushes pending messages.
func (k *KafkaMirror) Close() error {
	return k.writer.Close()
}
