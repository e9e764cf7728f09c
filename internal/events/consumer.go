// internal/events/consumer.go
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"notification-service/internal/common/config"
	"notification-service/internal/common/logger"
)

const consumeBackoff = time.Second

// Handler is invoked for every event payload delivered by the consumer.
type Handler func(ctx context.Context, topic string, payload []byte)

// Consumer wraps a Sarama consumer group subscribed to the trip, payment,
// and driver topics.
type Consumer struct {
	group  sarama.ConsumerGroup
	topics []string
	log    logger.Logger
}

// NewConsumer creates the consumer group for the configured brokers.
func NewConsumer(cfg config.KafkaConfig, log logger.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: at least one broker is required")
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Return.Errors = false

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: create consumer group: %w", err)
	}

	return &Consumer{
		group:  group,
		topics: cfg.Topics(),
		log:    log.WithFields(map[string]interface{}{"component": "kafka-consumer"}),
	}, nil
}

// Run consumes until ctx is cancelled. Rebalances and transient errors
// re-enter the consume loop after a short backoff.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	c.log.Info("kafka consumer started", map[string]interface{}{
		"topics": c.topics,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.group.Consume(ctx, c.topics, &groupHandler{handler: handler, log: c.log})
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.log.WithError(err).Error("kafka consume error", nil)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(consumeBackoff):
			}
		}
	}
}

// Close shuts down the consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

// groupHandler adapts the Handler to sarama's consumer group contract.
type groupHandler struct {
	handler Handler
	log     logger.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if len(msg.Value) > 0 {
				h.handler(session.Context(), msg.Topic, msg.Value)
			}
			session.MarkMessage(msg, "")
		}
	}
}
