package kafka

import (
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-events/internal/config"
)

// RequiredTopics lists every topic the service publishes to.
func RequiredTopics(topics config.TopicConfig) []string {
	return []string{
		topics.EventCreated,
		topics.EventUpdated,
		topics.EventDeleted,
		topics.ImportCompleted,
	}
}

// EnsureTopicsExist creates the given topics if they don't already exist.
// Individual creation failures are logged and skipped so one bad topic does
// not block the rest.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		topicConfigs := []kafka.TopicConfig{
			{
				Topic:             topic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		}

		err = controllerConn.CreateTopics(topicConfigs...)
		if err != nil {
			if err.Error() == "kafka server: topic already exists" {
				log.Printf("Topic %s already exists", topic)
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
		} else {
			log.Printf("Created topic: %s", topic)
		}
	}

	// Give the brokers a moment to settle topic metadata
	time.Sleep(1 * time.Second)
	return nil
}
