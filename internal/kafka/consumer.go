package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"notifyhub/internal/config"
)

// MessageHandler is a function type for processing consumed Kafka messages.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer implements MessageConsumer with confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
	logger   zerolog.Logger
}

// NewConfluentKafkaConsumer creates a new Kafka consumer instance. The
// group ID is supplied at Consume time.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig, logger zerolog.Logger) (MessageConsumer, error) {
	return &confluentKafkaConsumer{
		cfg:    cfg,
		logger: logger.With().Str("component", "kafka-consumer").Logger(),
	}, nil
}

// Consume polls the given topics and hands each message to the handler.
// Offsets are committed manually, only after the handler succeeds.
// Blocks until the context is canceled or a fatal error occurs.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	c.logger.Info().Str("group", groupID).Strs("topics", topics).Msg("kafka consumer started")

	run := true
	for run {
		select {
		case <-ctx.Done():
			c.logger.Info().Str("group", groupID).Msg("context canceled, shutting down consumer")
			run = false
		default:
			ev := c.consumer.Poll(1000)
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				if err := handler(ctx, e); err != nil {
					c.logger.Error().Err(err).
						Str("topic", *e.TopicPartition.Topic).
						Int64("offset", int64(e.TopicPartition.Offset)).
						Msg("message handler failed")
				} else {
					if _, err := c.consumer.CommitMessage(e); err != nil {
						c.logger.Error().Err(err).
							Str("topic", *e.TopicPartition.Topic).
							Int64("offset", int64(e.TopicPartition.Offset)).
							Msg("offset commit failed")
					}
				}
			case kafka.Error:
				c.logger.Error().
					Str("group", groupID).
					Bool("fatal", e.IsFatal()).
					Msgf("kafka consumer error: %v", e)
				if e.IsFatal() {
					return e
				}
			case kafka.AssignedPartitions:
				c.consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				c.consumer.Unassign()
			}
		}
	}
	return nil
}

// Close closes the underlying Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			c.logger.Error().Err(err).Str("group", c.groupID).Msg("closing kafka consumer")
		}
		c.consumer = nil
	}
}
