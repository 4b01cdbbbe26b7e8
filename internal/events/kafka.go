package events

import (
	"context"
	"time"

	"coinwhisperer/internal/adapters/kafka"
	"coinwhisperer/pkg/logger"
)

// KafkaPublisher mirrors realtime events to a Kafka topic. Publish failures
// are logged and swallowed so a broker outage never blocks the dashboard.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	timeout  time.Duration
	log      *logger.Logger
}

var _ Broadcaster = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for the given topic.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		timeout:  5 * time.Second,
		log:      logger.Get().With("component", "kafka_events"),
	}
}

// Broadcast publishes the event keyed by its type.
func (p *KafkaPublisher) Broadcast(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.producer.Publish(ctx, p.topic, event.Type, event); err != nil {
		p.log.Errorf("Failed to mirror %s event: %v", event.Type, err)
	}
}
