package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// MessageHandler is the interface for handling messages from Kafka
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer is a wrapper around sarama.ConsumerGroup
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topics        []string
	handlers      map[string]MessageHandler
	logger        logger.Logger
	retryBackoff  time.Duration
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// ConsumerConfig is the configuration for the Kafka consumer
type ConsumerConfig struct {
	Brokers       []string
	Topics        []string
	ConsumerGroup string
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *ConsumerConfig, logger logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaCfg)

	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		consumerGroup: consumerGroup,
		topics:        cfg.Topics,
		handlers:      make(map[string]MessageHandler),
		logger:        logger,
		retryBackoff:  2 * time.Second,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// RegisterHandler registers a message handler for a specific topic
func (c *Consumer) RegisterHandler(topic string, handler MessageHandler) {
	c.handlers[topic] = handler
}

// Start starts the Kafka consumer
func (c *Consumer) Start() error {
	if len(c.topics) == 0 {
		return fmt.Errorf("no topics to consume")
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		// Keep trying to join the consumer group until shutdown
		for {
			if err := c.consumerGroup.Consume(c.ctx, c.topics, c); err != nil {
				c.logger.Error("Kafka consumer error", "error", err)

				if c.ctx.Err() != nil {
					return
				}

				// Wait before rejoining so a dead broker doesn't hot-loop
				c.logger.Info("Retrying to join consumer group", "backoff", c.retryBackoff)
				select {
				case <-time.After(c.retryBackoff):
				case <-c.ctx.Done():
					return
				}
				continue
			}

			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	c.logger.Info("Kafka consumer started", "topics", c.topics)
	return nil
}

// Stop stops the Kafka consumer
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// Setup is run when the consumer group session begins (required by the
// sarama.ConsumerGroupHandler interface)
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run when the consumer group session ends (required by the
// sarama.ConsumerGroupHandler interface)
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim dispatches claimed messages to the registered topic handlers
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			c.logger.Debug("Received message from Kafka",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key))

			handler, exists := c.handlers[msg.Topic]

			if !exists {
				c.logger.Warn("No handler registered for topic", "topic", msg.Topic)
				session.MarkMessage(msg, "")
				continue
			}

			if err := handler.HandleMessage(session.Context(), msg); err != nil {
				c.logger.Error("Error handling message",
					"error", err,
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset)

				// Don't mark the message, so it will be redelivered
				continue
			}

			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		case <-c.ctx.Done():
			return nil
		}
	}
}
