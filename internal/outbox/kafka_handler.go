package outbox

import (
	"context"
	"fmt"

	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/pkg/kafka"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
	"github.com/dukaan-ai/orderdesk/pkg/retry"
)

// KafkaHandler publishes outbox messages to Kafka
type KafkaHandler struct {
	logger   logger.Logger
	producer *kafka.Producer
	topic    string
	backoff  retry.BackoffStrategy
}

// NewKafkaHandler creates a new KafkaHandler
func NewKafkaHandler(producer *kafka.Producer, topic string, logger logger.Logger) *KafkaHandler {
	return &KafkaHandler{
		producer: producer,
		topic:    topic,
		logger:   logger,
		backoff:  retry.NewDefaultExponentialBackoff(),
	}
}

// HandleMessage handles an outbox message by publishing it to Kafka, retrying
// transient broker failures before giving the message back to the poller.
func (h *KafkaHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	// Use the aggregate ID (order ID) as the Kafka message key so events for
	// one order stay ordered within a partition.
	key := message.AggregateID

	h.logger.Debug("Publishing message to Kafka",
		"topic", h.topic,
		"messageID", message.ID,
		"aggregateID", message.AggregateID,
		"eventType", message.EventType)

	err := retry.Retry(ctx, func() error {
		return h.producer.SendMessage(ctx, h.topic, key, message.Payload)
	}, &retry.RetryConfig{
		MaxAttempts:     3,
		BackoffStrategy: h.backoff,
		Logger:          h.logger,
	})

	if err != nil {
		h.logger.Error("Failed to publish message to Kafka",
			"error", err,
			"messageID", message.ID,
			"aggregateID", message.AggregateID)
		return fmt.Errorf("failed to publish message to Kafka: %w", err)
	}

	return nil
}
