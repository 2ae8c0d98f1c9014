package repository

import (
	"context"
	"fmt"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
)

const EventModelTrained = "model.trained"

// messagePublisher is satisfied by *kafka.Producer from pkg/kafka.
type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers map[string]string) error
	Close() error
}

// KafkaEventPublisher emits lifecycle events keyed by ticker, so all events
// for one ticker land on the same partition.
type KafkaEventPublisher struct {
	producer messagePublisher
	topic    string
}

func NewKafkaEventPublisher(producer messagePublisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishModelTrained(ctx context.Context, evt *models.ModelTrainedEvent) error {
	if evt == nil {
		return fmt.Errorf("nil event")
	}
	return p.producer.Publish(ctx, p.topic, []byte(evt.Ticker), evt, map[string]string{
		"event_type": EventModelTrained,
		"event_id":   evt.ID,
	})
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher drops every event. Used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishModelTrained(context.Context, *models.ModelTrainedEvent) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }

var (
	_ drepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ drepo.EventPublisher = NoopEventPublisher{}
)
