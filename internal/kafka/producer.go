package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ms-events/internal/config"
	"ms-events/internal/models"
)

// Producer streams event lifecycle changes to Kafka, one writer per topic.
type Producer struct {
	Created *kafka.Writer
	Updated *kafka.Writer
	Deleted *kafka.Writer
	Imports *kafka.Writer
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	return &Producer{
		Created: newWriter(brokers, topics.EventCreated),
		Updated: newWriter(brokers, topics.EventUpdated),
		Deleted: newWriter(brokers, topics.EventDeleted),
		Imports: newWriter(brokers, topics.ImportCompleted),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
}

// Close shuts down all writers, returning the first error encountered.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.Created, p.Updated, p.Deleted, p.Imports} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishEventCreated streams a stored event to Kafka
func (p *Producer) PublishEventCreated(event models.Event) error {
	return publishEvent(p.Created, event)
}

// PublishEventUpdated streams an updated event to Kafka
func (p *Producer) PublishEventUpdated(event models.Event) error {
	return publishEvent(p.Updated, event)
}

// PublishEventDeleted streams a deleted event id to Kafka
func (p *Producer) PublishEventDeleted(id int64) error {
	msgBytes, err := json.Marshal(map[string]int64{"id": id})
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", p.Deleted.Topic, string(msgBytes))

	return p.Deleted.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(strconv.FormatInt(id, 10)),
			Value: msgBytes,
		},
	)
}

// PublishImportCompleted streams a finished CSV import batch to Kafka
func (p *Producer) PublishImportCompleted(batchID string, inserted int) error {
	msgBytes, err := json.Marshal(map[string]interface{}{
		"batch_id": batchID,
		"inserted": inserted,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", p.Imports.Topic, string(msgBytes))

	return p.Imports.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(batchID),
			Value: msgBytes,
		},
	)
}

func publishEvent(writer *kafka.Writer, event models.Event) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", writer.Topic, string(msgBytes))

	return writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(strconv.FormatInt(event.ID, 10)),
			Value: msgBytes,
		},
	)
}

// Noop satisfies the publisher contract when Kafka is disabled.
type Noop struct{}

func (Noop) PublishEventCreated(models.Event) error   { return nil }
func (Noop) PublishEventUpdated(models.Event) error   { return nil }
func (Noop) PublishEventDeleted(int64) error          { return nil }
func (Noop) PublishImportCompleted(string, int) error { return nil }
