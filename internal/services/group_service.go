package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notifyhub/internal/config"
	"notifyhub/internal/kafka"
	"notifyhub/internal/models"
	"notifyhub/internal/storage"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrNotGroupMember  = errors.New("not a member of this group")
	ErrAlreadyMember   = errors.New("user is already a member of this group")
	ErrInviteSelf      = errors.New("cannot invite yourself")
	ErrInviteeNotFound = errors.New("invited user does not exist")
)

// GroupService defines the interface for group operations.
type GroupService interface {
	CreateGroup(ctx context.Context, ownerID uint, name, description string) (*models.Group, error)
	GetGroup(ctx context.Context, groupID uint) (*models.Group, error)
	InviteToGroup(ctx context.Context, inviterID, inviteeID, groupID uint) error
	LeaveGroup(ctx context.Context, groupID, userID uint) error
	ListUserGroups(ctx context.Context, userID uint) ([]*models.Group, error)
}

type groupService struct {
	groupRepo   storage.GroupRepository
	userRepo    storage.UserRepository
	producer    kafka.MessageProducer
	kafkaConfig config.KafkaConfig
}

// NewGroupService creates a new GroupService instance.
func NewGroupService(
	groupRepo storage.GroupRepository,
	userRepo storage.UserRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) GroupService {
	return &groupService{
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		producer:    producer,
		kafkaConfig: cfg,
	}
}

// CreateGroup creates a group with the owner as its first admin member.
func (s *groupService) CreateGroup(ctx context.Context, ownerID uint, name, description string) (*models.Group, error) {
	group := &models.Group{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	owner := &models.GroupMember{GroupID: group.ID, UserID: ownerID, Role: models.AdminRole}
	if err := s.groupRepo.AddMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("adding owner to group %d: %w", group.ID, err)
	}
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("loading group %d: %w", groupID, err)
	}
	return group, nil
}

// InviteToGroup validates the invitation and publishes an interaction
// event; the feed server turns it into an invitation notification.
func (s *groupService) InviteToGroup(ctx context.Context, inviterID, inviteeID, groupID uint) error {
	if inviterID == inviteeID {
		return ErrInviteSelf
	}

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, inviterID)
	if err != nil {
		return fmt.Errorf("checking inviter membership: %w", err)
	}
	if !isMember {
		return ErrNotGroupMember
	}

	if _, err := s.userRepo.GetByID(ctx, inviteeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteeNotFound
		}
		return fmt.Errorf("checking invitee %d: %w", inviteeID, err)
	}

	alreadyMember, err := s.groupRepo.IsMember(ctx, groupID, inviteeID)
	if err != nil {
		return fmt.Errorf("checking invitee membership: %w", err)
	}
	if alreadyMember {
		return ErrAlreadyMember
	}

	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionGroupInvitation,
		ActorUserID:     inviterID,
		RecipientUserID: inviteeID,
		GroupID:         &group.ID,
		Message:         fmt.Sprintf("invited you to join %s", group.Name),
	})
}

func (s *groupService) LeaveGroup(ctx context.Context, groupID, userID uint) error {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !isMember {
		return ErrNotGroupMember
	}
	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("leaving group %d: %w", groupID, err)
	}
	return nil
}

func (s *groupService) ListUserGroups(ctx context.Context, userID uint) ([]*models.Group, error) {
	groups, err := s.groupRepo.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing groups for user %d: %w", userID, err)
	}
	return groups, nil
}
