package notify

import (
	"context"

	"github.com/fra-atlas/platform/pkg/common/kafka"
)

const source = "digitization-service"

// KafkaPublisher emits pipeline events to the platform event bus.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: kafka.NewProducer(topic)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	return p.producer.PublishEvent(ctx, eventType, source, data)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
