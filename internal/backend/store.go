package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"notifyhub/internal/center"
	"notifyhub/internal/kafka"
	"notifyhub/internal/models"
	"notifyhub/internal/redis"
	"notifyhub/internal/storage"
)

// Store is the persistence-backed implementation of center.Backend.
// Feed subscriptions combine an initial database snapshot with a Redis
// change-feed wake-up per mutation; every confirmed mutation publishes
// change signals for the affected users and a delivery event for
// downstream push transports.
type Store struct {
	users         storage.UserRepository
	groups        storage.GroupRepository
	requests      storage.FriendRequestRepository
	friendships   storage.FriendshipRepository
	notifications storage.NotificationRepository
	changes       *redis.ChangeFeed
	producer      kafka.MessageProducer
	deliveryTopic string
	logger        zerolog.Logger
}

// NewStore wires a Store over the given repositories and transports.
// producer may be nil when no delivery topic is configured.
func NewStore(
	users storage.UserRepository,
	groups storage.GroupRepository,
	requests storage.FriendRequestRepository,
	friendships storage.FriendshipRepository,
	notifications storage.NotificationRepository,
	changes *redis.ChangeFeed,
	producer kafka.MessageProducer,
	deliveryTopic string,
	logger zerolog.Logger,
) *Store {
	return &Store{
		users:         users,
		groups:        groups,
		requests:      requests,
		friendships:   friendships,
		notifications: notifications,
		changes:       changes,
		producer:      producer,
		deliveryTopic: deliveryTopic,
		logger:        logger.With().Str("component", "backend").Logger(),
	}
}

var _ center.Backend = (*Store)(nil)

// ProfileByID resolves a user's display identity.
func (s *Store) ProfileByID(ctx context.Context, userID uint) (*center.Sender, error) {
	info, err := s.users.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, center.ErrNotFound
		}
		return nil, fmt.Errorf("loading profile %d: %w", userID, err)
	}
	return &center.Sender{
		ID:        info.ID,
		Name:      info.Name,
		Username:  info.Username,
		AvatarURL: info.AvatarURL,
	}, nil
}

// GroupByID resolves a group's display metadata.
func (s *Store) GroupByID(ctx context.Context, groupID uint) (*center.GroupInfo, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, center.ErrNotFound
		}
		return nil, fmt.Errorf("loading group %d: %w", groupID, err)
	}
	return &center.GroupInfo{ID: group.ID, Name: group.Name}, nil
}

// AcceptFriendRequest flips the request to accepted and records the
// friendship. Both sides get a change signal: the recipient's pending
// list shrinks, the sender may be showing an outgoing-request state.
func (s *Store) AcceptFriendRequest(ctx context.Context, requestID, fromUserID, toUserID uint) error {
	if err := s.requests.UpdateStatus(ctx, requestID, models.FriendRequestStatusAccepted); err != nil {
		return fmt.Errorf("accepting friend request %d: %w", requestID, err)
	}

	friendship := &models.Friendship{UserID1: fromUserID, UserID2: toUserID}
	friendship.EnsureCanonicalOrder()
	if err := s.friendships.Create(ctx, friendship); err != nil {
		return fmt.Errorf("recording friendship for request %d: %w", requestID, err)
	}

	s.changes.PublishAll(ctx, fromUserID, toUserID)
	s.publishDelivery(ctx, "friend_request_accepted", fromUserID, toUserID)
	return nil
}

// DeclineFriendRequest removes the request row. The sender can re-send
// later; nothing is recorded about the decline.
func (s *Store) DeclineFriendRequest(ctx context.Context, requestID uint) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return center.ErrNotFound
		}
		return fmt.Errorf("loading friend request %d: %w", requestID, err)
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("declining friend request %d: %w", requestID, err)
	}

	s.changes.PublishAll(ctx, request.ToUserID)
	return nil
}

// AcceptGroupInvitation joins the user to the group and marks the
// invitation read so it leaves the pending invitation list.
func (s *Store) AcceptGroupInvitation(ctx context.Context, groupID, userID uint, notificationID string) error {
	member := &models.GroupMember{GroupID: groupID, UserID: userID, Role: models.MemberRole}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return fmt.Errorf("joining group %d: %w", groupID, err)
	}
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("settling invitation %s: %w", notificationID, err)
	}

	s.changes.PublishAll(ctx, userID)
	s.publishDelivery(ctx, "group_invitation_accepted", userID)
	return nil
}

// DeclineGroupInvitation discards the invitation notification.
func (s *Store) DeclineGroupInvitation(ctx context.Context, notificationID string, userID uint) error {
	if err := s.notifications.Delete(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("declining invitation %s: %w", notificationID, err)
	}

	s.changes.PublishAll(ctx, userID)
	return nil
}

// MarkNotificationRead flips the read flag on one notification.
func (s *Store) MarkNotificationRead(ctx context.Context, userID uint, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}

	s.changes.PublishAll(ctx, userID)
	return nil
}

// DeleteNotifications removes a batch of the user's notifications.
func (s *Store) DeleteNotifications(ctx context.Context, userID uint, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.notifications.DeleteMany(ctx, userID, ids); err != nil {
		return fmt.Errorf("deleting %d notifications: %w", len(ids), err)
	}

	s.changes.PublishAll(ctx, userID)
	s.publishDelivery(ctx, "notifications_deleted", userID)
	return nil
}

// publishDelivery emits a delivery event for push bridges. The mutation
// it describes is already committed, so a publish failure is logged and
// swallowed rather than rolled back.
func (s *Store) publishDelivery(ctx context.Context, action string, userIDs ...uint) {
	if s.producer == nil || s.deliveryTopic == "" {
		return
	}
	event := kafka.DeliveryEvent{Action: action, UserIDs: userIDs, Timestamp: time.Now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("marshaling delivery event")
		return
	}
	if err := s.producer.SendMessage(ctx, s.deliveryTopic, []byte(action), payload); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("delivery event publish failed")
	}
}
