package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"mesaYaCore/internal/modules/restaurant/domain"
)

// KafkaPublisher carries engine events to the notification services. Messages
// land on the event's own topic keyed by resource id so consumers see ordered
// per-entity streams.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 100 * time.Millisecond,
			Async:        false,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Topic, err)
	}
	msg := kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.ResourceID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event %s: %w", event.Topic, err)
	}
	slog.Debug("event published",
		slog.String("topic", event.Topic),
		slog.String("action", event.Action),
		slog.String("resourceId", event.ResourceID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
