// Package kafka publishes newly ingested alert events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/space-weather-service/internal/config"
	"github.com/couchcryptid/space-weather-service/internal/domain"
)

// Writer produces alert messages to the configured topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alerts topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishEvents writes all events in a single WriteMessages call. Events with
// the same natural key hash to the same partition.
func (w *Writer) PublishEvents(ctx context.Context, events []domain.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write alert messages: %w", err)
	}
	w.logger.Debug("alerts published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey is the natural key of an event: source|product_id|issued_at.
func MessageKey(e domain.EventRecord) string {
	return fmt.Sprintf("%s|%s|%s", e.Source, e.ProductID, e.IssuedAt.UTC().Format(time.RFC3339Nano))
}

func serializeToMessage(event domain.EventRecord) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(event)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "issued_at", Value: []byte(event.IssuedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
