package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const changeChannelPrefix = "feed:changed:"

// ChangeFeed fans change signals out across server instances. Every
// confirmed mutation that affects a user's notification state publishes
// to that user's channel; live feed subscriptions re-query their full
// snapshot whenever a signal arrives.
type ChangeFeed struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewChangeFeed creates a ChangeFeed on top of the given Redis client.
func NewChangeFeed(client *redis.Client, logger zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, logger: logger.With().Str("component", "changefeed").Logger()}
}

func changeChannel(userID uint) string {
	return fmt.Sprintf("%s%d", changeChannelPrefix, userID)
}

// Publish signals that the given user's notification state changed.
func (f *ChangeFeed) Publish(ctx context.Context, userID uint) error {
	if err := f.client.Publish(ctx, changeChannel(userID), "changed").Err(); err != nil {
		return fmt.Errorf("publishing change for user %d: %w", userID, err)
	}
	return nil
}

// PublishAll signals a change for each of the given users. Failures are
// logged and skipped; a missed wake-up only delays the next snapshot.
func (f *ChangeFeed) PublishAll(ctx context.Context, userIDs ...uint) {
	for _, id := range userIDs {
		if err := f.Publish(ctx, id); err != nil {
			f.logger.Warn().Err(err).Uint("userId", id).Msg("change publish failed")
		}
	}
}

// Subscribe returns a channel that receives one empty struct per change
// signal for the user, and a stop function. The signal channel is closed
// after stop is called (or the context ends) and the subscription drains.
func (f *ChangeFeed) Subscribe(ctx context.Context, userID uint) (<-chan struct{}, func()) {
	pubsub := f.client.Subscribe(ctx, changeChannel(userID))
	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		for range pubsub.Channel() {
			// Coalesce: one pending signal is enough, the consumer
			// re-reads the full snapshot anyway.
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		if err := pubsub.Close(); err != nil {
			f.logger.Warn().Err(err).Uint("userId", userID).Msg("closing change subscription")
		}
	}
	return signals, stop
}
