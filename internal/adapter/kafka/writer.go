package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/floodcast/floodcast-api/internal/config"
	"github.com/floodcast/floodcast-api/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// EventTypePredictionRecorded is the event_type header on every published prediction.
const EventTypePredictionRecorded = "prediction.recorded"

// Writer publishes recorded predictions to a Kafka topic.
// It implements pipeline.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured prediction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPrediction writes one prediction record, keyed by its owner so a
// user's predictions stay ordered within a partition.
func (w *Writer) PublishPrediction(ctx context.Context, result domain.PredictionResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction %s: %w", result.ID, err)
	}
	w.logger.Debug("prediction published", "id", result.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PredictionResult into a Kafka message.
func serializeToMessage(result domain.PredictionResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.SubjectID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypePredictionRecorded)},
			{Key: "created_at", Value: []byte(result.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
