package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notifyhub/internal/config"
	"notifyhub/internal/kafka"
)

// publishInteraction serializes an interaction event and hands it to the
// interactions topic. The API servers never write notification rows
// directly; the feed server consumer owns that table.
func publishInteraction(ctx context.Context, producer kafka.MessageProducer, cfg config.KafkaConfig, event kafka.InteractionEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.Kind, err)
	}

	// Keyed by recipient so one user's events stay ordered per partition.
	key := []byte(fmt.Sprintf("%d", event.RecipientUserID))
	if err := producer.SendMessage(ctx, cfg.InteractionsTopic, key, payload); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Kind, err)
	}
	return nil
}
