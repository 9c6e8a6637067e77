package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"notifyhub/internal/config"
	"notifyhub/internal/kafka"
	"notifyhub/internal/models"
	"notifyhub/internal/storage"
)

// ChangePublisher signals that a user's notification state changed.
// Satisfied by the Redis change feed.
type ChangePublisher interface {
	PublishAll(ctx context.Context, userIDs ...uint)
}

// NotificationService owns the notification table on the feed server
// side. It turns interaction events from Kafka into friend request and
// notification rows, and signals the change feed so live subscriptions
// re-query.
type NotificationService interface {
	ProcessInteraction(ctx context.Context, msg *confluentKafka.Message) error
	ListForUser(ctx context.Context, userID uint) ([]models.Notification, error)
}

type notificationService struct {
	notificationRepo storage.NotificationRepository
	friendRepo       storage.FriendRequestRepository
	friendshipRepo   storage.FriendshipRepository
	userRepo         storage.UserRepository
	changes          ChangePublisher
	producer         kafka.MessageProducer
	kafkaConfig      config.KafkaConfig
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(
	notificationRepo storage.NotificationRepository,
	friendRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	userRepo storage.UserRepository,
	changes ChangePublisher,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		friendRepo:       friendRepo,
		friendshipRepo:   friendshipRepo,
		userRepo:         userRepo,
		changes:          changes,
		producer:         producer,
		kafkaConfig:      cfg,
		logger:           logger.With().Str("component", "notification_service").Logger(),
	}
}

// ProcessInteraction handles one interaction event from Kafka. A nil
// return commits the offset; a non-nil return leaves it for redelivery.
// Malformed messages are logged and committed, they will never succeed.
func (s *notificationService) ProcessInteraction(ctx context.Context, msg *confluentKafka.Message) error {
	var event kafka.InteractionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.logger.Error().Err(err).Str("value", string(msg.Value)).Msg("malformed interaction event, skipping")
		return nil
	}
	if event.ActorUserID == 0 || event.RecipientUserID == 0 {
		s.logger.Error().Interface("event", event).Msg("interaction event missing user ids, skipping")
		return nil
	}

	switch event.Kind {
	case kafka.InteractionFriendRequest:
		return s.processFriendRequest(ctx, event)
	case kafka.InteractionGroupInvitation, kafka.InteractionLike, kafka.InteractionComment, kafka.InteractionTag, kafka.InteractionMention:
		return s.processNotification(ctx, event)
	default:
		s.logger.Warn().Str("kind", string(event.Kind)).Msg("unknown interaction kind, skipping")
		return nil
	}
}

// processFriendRequest creates the pending request row. Events can be
// redelivered, so the existence checks run again consumer side.
func (s *notificationService) processFriendRequest(ctx context.Context, event kafka.InteractionEvent) error {
	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, event.ActorUserID, event.RecipientUserID)
	if err != nil {
		return fmt.Errorf("checking friendship: %w", err)
	}
	if areFriends {
		return nil
	}

	existing, err := s.friendRepo.FindPendingBetween(ctx, event.ActorUserID, event.RecipientUserID)
	if err != nil {
		return fmt.Errorf("checking existing request: %w", err)
	}
	if existing != nil {
		return nil
	}

	request := &models.FriendRequest{
		FromUserID: event.ActorUserID,
		ToUserID:   event.RecipientUserID,
		Status:     models.FriendRequestStatusPending,
		Message:    event.Message,
	}
	if err := s.friendRepo.Create(ctx, request); err != nil {
		return fmt.Errorf("creating friend request: %w", err)
	}

	s.changes.PublishAll(ctx, event.RecipientUserID)
	s.publishDelivery(ctx, "friend_request_received", event.RecipientUserID)
	return nil
}

// processNotification creates a notification row with the sender's
// display snapshot denormalized in. A sender whose profile cannot be
// loaded still produces a row; display falls back to a placeholder.
func (s *notificationService) processNotification(ctx context.Context, event kafka.InteractionEvent) error {
	notification := &models.Notification{
		ID:              uuid.NewString(),
		RecipientUserID: event.RecipientUserID,
		Type:            models.NotificationType(event.Kind),
		FromUserID:      event.ActorUserID,
		PostID:          event.PostID,
		GroupID:         event.GroupID,
		Message:         event.Message,
		CreatedAt:       event.Timestamp,
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	sender, err := s.userRepo.GetBasicInfoByID(ctx, event.ActorUserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("loading sender %d: %w", event.ActorUserID, err)
	}
	if sender != nil {
		notification.FromUsername = sender.Username
		notification.FromName = sender.Name
		notification.FromAvatarURL = sender.AvatarURL
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	s.changes.PublishAll(ctx, event.RecipientUserID)
	s.publishDelivery(ctx, "notification_created", event.RecipientUserID)
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %d: %w", userID, err)
	}
	return notifications, nil
}

// publishDelivery emits a delivery event for downstream push bridges.
// The row is already committed; publish failures are logged only.
func (s *notificationService) publishDelivery(ctx context.Context, action string, userIDs ...uint) {
	if s.producer == nil || s.kafkaConfig.DeliveryTopic == "" {
		return
	}
	event := kafka.DeliveryEvent{Action: action, UserIDs: userIDs, Timestamp: time.Now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("marshaling delivery event")
		return
	}
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.DeliveryTopic, []byte(action), payload); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("delivery event publish failed")
	}
}
