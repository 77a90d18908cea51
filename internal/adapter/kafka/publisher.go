// Package kafka publishes calculation updates to the broker topic consumed
// by downstream alerting and mapping services.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/chem-dispersion-service/internal/config"
	"github.com/couchcryptid/chem-dispersion-service/internal/domain"
)

// Publisher produces calculation updates to a Kafka topic, keyed by release
// ID so one release's updates stay ordered on one partition.
// It implements domain.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured updates topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one update and writes it keyed by release ID.
func (p *Publisher) Publish(ctx context.Context, releaseID string, update domain.CalculationUpdate) error {
	msg, err := serializeToMessage(releaseID, update)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a CalculationUpdate into a Kafka message.
func serializeToMessage(releaseID string, update domain.CalculationUpdate) (kafkago.Message, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize calculation update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(releaseID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "update_type", Value: []byte(update.Type)},
			{Key: "published_at", Value: []byte(update.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
