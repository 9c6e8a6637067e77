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

var ErrPostNotFound = errors.New("post not found")

// PostService defines the interface for post interactions. Posts exist
// here as interaction targets; likes, comments, tags and mentions all
// become interaction events addressed to the relevant user.
type PostService interface {
	CreatePost(ctx context.Context, authorID uint, caption, imageURL string) (*models.Post, error)
	LikePost(ctx context.Context, actorID, postID uint) error
	CommentOnPost(ctx context.Context, actorID, postID uint, comment string) error
	TagUser(ctx context.Context, actorID, postID, taggedUserID uint) error
	MentionUser(ctx context.Context, actorID, postID, mentionedUserID uint, excerpt string) error
}

type postService struct {
	postRepo    storage.PostRepository
	userRepo    storage.UserRepository
	producer    kafka.MessageProducer
	kafkaConfig config.KafkaConfig
}

// NewPostService creates a new PostService instance.
func NewPostService(
	postRepo storage.PostRepository,
	userRepo storage.UserRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) PostService {
	return &postService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		producer:    producer,
		kafkaConfig: cfg,
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID uint, caption, imageURL string) (*models.Post, error) {
	post := &models.Post{AuthorID: authorID, Caption: caption, ImageURL: imageURL}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return post, nil
}

// LikePost notifies the post author about the like. Liking your own
// post produces no notification.
func (s *postService) LikePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID == actorID {
		return nil
	}
	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionLike,
		ActorUserID:     actorID,
		RecipientUserID: post.AuthorID,
		PostID:          &post.ID,
	})
}

// CommentOnPost notifies the post author about the comment.
func (s *postService) CommentOnPost(ctx context.Context, actorID, postID uint, comment string) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID == actorID {
		return nil
	}
	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionComment,
		ActorUserID:     actorID,
		RecipientUserID: post.AuthorID,
		PostID:          &post.ID,
		Message:         comment,
	})
}

// TagUser notifies a user that they were tagged in a post.
func (s *postService) TagUser(ctx context.Context, actorID, postID, taggedUserID uint) error {
	if actorID == taggedUserID {
		return nil
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, taggedUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("checking tagged user %d: %w", taggedUserID, err)
	}
	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionTag,
		ActorUserID:     actorID,
		RecipientUserID: taggedUserID,
		PostID:          &post.ID,
	})
}

// MentionUser notifies a user that they were mentioned in a comment.
func (s *postService) MentionUser(ctx context.Context, actorID, postID, mentionedUserID uint, excerpt string) error {
	if actorID == mentionedUserID {
		return nil
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, mentionedUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("checking mentioned user %d: %w", mentionedUserID, err)
	}
	return publishInteraction(ctx, s.producer, s.kafkaConfig, kafka.InteractionEvent{
		Kind:            kafka.InteractionMention,
		ActorUserID:     actorID,
		RecipientUserID: mentionedUserID,
		PostID:          &post.ID,
		Message:         excerpt,
	})
}

func (s *postService) loadPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("loading post %d: %w", postID, err)
	}
	return post, nil
}
