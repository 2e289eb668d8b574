package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/redeban-reporter/internal/events"
	"github.com/segmentio/kafka-go"
)

// Publisher writes RunCompleted events as JSON to one topic.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = events.RunCompletedTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Topic returns the topic events are written to.
func (p *Publisher) Topic() string {
	return p.writer.Topic
}

func (p *Publisher) Publish(ctx context.Context, event events.RunCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka.Publish: marshal: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka.Publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
