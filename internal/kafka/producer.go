package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"lensbook/internal/config"
	"lensbook/internal/models"
)

// Producer fans booking lifecycle and verification events out to Kafka. When
// the broker is disabled in config every publish is a no-op so the API keeps
// working in single-node deployments.
type Producer struct {
	enabled bool
	writers map[string]*kafka.Writer
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{enabled: cfg.Enabled, writers: map[string]*kafka.Writer{}}
	if !cfg.Enabled {
		return p
	}
	for _, topic := range []string{
		cfg.Topics.BookingCreated,
		cfg.Topics.BookingUpdated,
		cfg.Topics.BookingCancelled,
		cfg.Topics.PhotographerVerified,
	} {
		p.writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}
	return p
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if !p.enabled {
		return nil
	}
	w, ok := p.writers[topic]
	if !ok {
		return nil
	}
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	})
}

// PublishBookingCreated streams a new pending booking to the created topic.
func (p *Producer) PublishBookingCreated(ctx context.Context, topic string, b models.Booking) error {
	return p.publish(ctx, topic, b.ID, b)
}

// PublishBookingUpdated streams a status transition.
func (p *Producer) PublishBookingUpdated(ctx context.Context, topic string, b models.Booking) error {
	return p.publish(ctx, topic, b.ID, b)
}

// PublishBookingCancelled streams a cancellation, including the freed slot.
func (p *Producer) PublishBookingCancelled(ctx context.Context, topic string, b models.Booking) error {
	return p.publish(ctx, topic, b.ID, b)
}

// PublishPhotographerVerified streams an admin verification decision.
func (p *Producer) PublishPhotographerVerified(ctx context.Context, topic string, ph models.Photographer) error {
	return p.publish(ctx, topic, ph.ID, ph)
}

// Close flushes and closes all writers.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
