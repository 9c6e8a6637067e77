package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notifyhub/internal/center"
	"notifyhub/internal/config"
	"notifyhub/internal/kafka"
	"notifyhub/internal/models"
	"notifyhub/internal/storage"
)

var (
	ErrFriendRequestSelf     = errors.New("cannot send a friend request to yourself")
	ErrFriendRequestExists   = errors.New("a pending friend request already exists")
	ErrRecipientNotFound     = errors.New("recipient user does not exist")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrNotRecipientOfRequest = errors.New("not the recipient of this friend request")
	ErrRequestNotPending     = errors.New("friend request is not pending")
)

// FriendRequestService defines the interface for friend request operations.
// Sending validates and publishes an interaction event; the feed server
// consumer creates the row. Accepting and declining validate ownership
// and then delegate the mutation to the shared backend so the change
// signals fire the same way as from the live connection.
type FriendRequestService interface {
	SendFriendRequest(ctx context.Context, requesterID, recipientID uint, message string) error
	AcceptFriendRequest(ctx context.Context, recipientUserID, requestID uint) error
	DeclineFriendRequest(ctx context.Context, recipientUserID, requestID uint) error
	ListPendingRequests(ctx context.Context, userID uint) ([]*models.FriendRequestWithSender, error)
	GetFriendsList(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error)
}

type friendRequestService struct {
	userRepo       storage.UserRepository
	friendRepo     storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	backend        center.Backend
	producer       kafka.MessageProducer
	kafkaConfig    config.KafkaConfig
}

// NewFriendRequestService creates a new FriendRequestService instance.
func NewFriendRequestService(
	userRepo storage.UserRepository,
	friendRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	backend center.Backend,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) FriendRequestService {
	return &friendRequestService{
		userRepo:       userRepo,
		friendRepo:     friendRepo,
		friendshipRepo: friendshipRepo,
		backend:        backend,
		producer:       producer,
		kafkaConfig:    cfg,
	}
}

// SendFriendRequest validates the request and publishes an interaction
// event for the feed server to process.
func (s *friendRequestService) SendFriendRequest(ctx context.Context, requesterID, recipientID uint, message string) error {
	if requesterID == recipientID {
		return ErrFriendRequestSelf
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipientNotFound
		}
		return fmt.Errorf("checking recipient %d: %w", recipientID, err)
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, requesterID, recipientID)
	if err != nil {
		return fmt.Errorf("checking friendship: %w", err)
	}
	if areFriends {
		return ErrAlreadyFriends
	}

	existing, err := s.friendRepo.FindPendingBetween(ctx, requesterID, recipientID)
	if err != nil {
		return fmt.Errorf("checking existing request: %w", err)
	}
	if existing != nil {
		return ErrFriendRequestExists
	}

	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionFriendRequest,
		ActorUserID:     requesterID,
		RecipientUserID: recipientID,
		Message:         message,
	})
}

// AcceptFriendRequest validates ownership and state, then applies the
// acceptance through the shared backend.
func (s *friendRequestService) AcceptFriendRequest(ctx context.Context, recipientUserID, requestID uint) error {
	request, err := s.loadPendingRequest(ctx, recipientUserID, requestID)
	if err != nil {
		return err
	}
	return s.backend.AcceptFriendRequest(ctx, request.ID, request.FromUserID, request.ToUserID)
}

// DeclineFriendRequest validates ownership and state, then removes the
// request through the shared backend.
func (s *friendRequestService) DeclineFriendRequest(ctx context.Context, recipientUserID, requestID uint) error {
	if _, err := s.loadPendingRequest(ctx, recipientUserID, requestID); err != nil {
		return err
	}
	return s.backend.DeclineFriendRequest(ctx, requestID)
}

func (s *friendRequestService) loadPendingRequest(ctx context.Context, recipientUserID, requestID uint) (*models.FriendRequest, error) {
	request, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("loading friend request %d: %w", requestID, err)
	}
	if request.ToUserID != recipientUserID {
		return nil, ErrNotRecipientOfRequest
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrRequestNotPending
	}
	return request, nil
}

// ListPendingRequests returns the user's pending requests enriched with
// sender info. A sender whose profile cannot be loaded is skipped here;
// the live feed path uses placeholders instead.
func (s *friendRequestService) ListPendingRequests(ctx context.Context, userID uint) ([]*models.FriendRequestWithSender, error) {
	pending, err := s.friendRepo.ListPendingForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}

	result := make([]*models.FriendRequestWithSender, 0, len(pending))
	for _, req := range pending {
		sender, err := s.userRepo.GetBasicInfoByID(ctx, req.FromUserID)
		if err != nil {
			continue
		}
		result = append(result, &models.FriendRequestWithSender{
			FriendRequest: req,
			Sender:        sender,
		})
	}
	return result, nil
}

// GetFriendsList returns basic info for all of the user's friends.
func (s *friendRequestService) GetFriendsList(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}

	friends := make([]*models.UserBasicInfo, 0, len(friendIDs))
	for _, id := range friendIDs {
		info, err := s.userRepo.GetBasicInfoByID(ctx, id)
		if err != nil {
			continue
		}
		friends = append(friends, info)
	}
	return friends, nil
}
