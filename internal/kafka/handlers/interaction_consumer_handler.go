package kafkahandlers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"notifyhub/internal/services"
)

// InteractionConsumerLogic bridges the interactions topic to the
// notification service. All parsing and idempotency lives in the
// service; this layer only carries the consumer logging context.
type InteractionConsumerLogic struct {
	notifications services.NotificationService
	logger        zerolog.Logger
}

// NewInteractionConsumerLogic creates a new InteractionConsumerLogic.
func NewInteractionConsumerLogic(ns services.NotificationService, logger zerolog.Logger) *InteractionConsumerLogic {
	return &InteractionConsumerLogic{
		notifications: ns,
		logger:        logger.With().Str("component", "interaction_consumer").Logger(),
	}
}

// HandleInteraction is the MessageHandler passed to the Kafka consumer.
// A non-nil return leaves the offset uncommitted for redelivery.
func (h *InteractionConsumerLogic) HandleInteraction(ctx context.Context, msg *kafka.Message) error {
	h.logger.Debug().
		Str("topic", topicName(msg)).
		Int32("partition", msg.TopicPartition.Partition).
		Str("offset", msg.TopicPartition.Offset.String()).
		Msg("interaction event received")

	if err := h.notifications.ProcessInteraction(ctx, msg); err != nil {
		h.logger.Error().Err(err).
			Str("offset", msg.TopicPartition.Offset.String()).
			Msg("interaction event processing failed, will retry")
		return err
	}
	return nil
}

func topicName(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}
