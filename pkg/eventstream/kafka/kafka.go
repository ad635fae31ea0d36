// Package kafka publishes memory change events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/pkg/eventstream"
)

// DefaultTopic is the topic memory change events are published to when none
// is configured.
const DefaultTopic = "engram.memory.changed"

// Publisher ships memory change events to Kafka.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is the list of broker addresses (host:port).
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}

	logger.Info("kafka publisher ready",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishMemoryChange writes one event to the topic, keyed by record id so
// changes to the same record land in one partition in order.
func (p *Publisher) PublishMemoryChange(ctx context.Context, event *eventstream.MemoryChangedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal memory event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.RecordID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write memory event: %w", err)
	}

	p.logger.Debug("published memory event",
		zap.String("event_id", event.EventID),
		zap.String("action", event.Action),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
