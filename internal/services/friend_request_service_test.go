package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"notifyhub/internal/center"
	"notifyhub/internal/config"
	"notifyhub/internal/kafka"
	"notifyhub/internal/models"
)

// fakeMutationBackend records the mutations delegated by the service.
type fakeMutationBackend struct {
	acceptCalls  int
	declineCalls int
}

func (f *fakeMutationBackend) SubscribeFriendRequests(ctx context.Context, ownerID uint, onEvent func(center.FriendRequestEvent)) (center.UnsubscribeFunc, error) {
	return func() {}, nil
}

func (f *fakeMutationBackend) SubscribeNotifications(ctx context.Context, ownerID uint, onEvent func(center.NotificationEvent)) (center.UnsubscribeFunc, error) {
	return func() {}, nil
}

func (f *fakeMutationBackend) ProfileByID(ctx context.Context, userID uint) (*center.Sender, error) {
	return nil, center.ErrNotFound
}

func (f *fakeMutationBackend) GroupByID(ctx context.Context, groupID uint) (*center.GroupInfo, error) {
	return nil, center.ErrNotFound
}

func (f *fakeMutationBackend) AcceptFriendRequest(ctx context.Context, requestID, fromUserID, toUserID uint) error {
	f.acceptCalls++
	return nil
}

func (f *fakeMutationBackend) DeclineFriendRequest(ctx context.Context, requestID uint) error {
	f.declineCalls++
	return nil
}

func (f *fakeMutationBackend) AcceptGroupInvitation(ctx context.Context, groupID, userID uint, notificationID string) error {
	return nil
}

func (f *fakeMutationBackend) DeclineGroupInvitation(ctx context.Context, notificationID string, userID uint) error {
	return nil
}

func (f *fakeMutationBackend) MarkNotificationRead(ctx context.Context, userID uint, notificationID string) error {
	return nil
}

func (f *fakeMutationBackend) DeleteNotifications(ctx context.Context, userID uint, ids []string) error {
	return nil
}

func testKafkaConfig() config.KafkaConfig {
	return config.KafkaConfig{
		InteractionsTopic: "interactions",
		DeliveryTopic:     "delivery",
	}
}

func newFriendRequestFixture() (*fakeUserRepo, *fakeFriendRequestRepo, *fakeFriendshipRepo, *fakeMutationBackend, *fakeProducer, FriendRequestService) {
	users := newFakeUserRepo()
	requests := newFakeFriendRequestRepo()
	friendships := &fakeFriendshipRepo{}
	mutations := &fakeMutationBackend{}
	producer := &fakeProducer{}
	svc := NewFriendRequestService(users, requests, friendships, mutations, producer, testKafkaConfig())
	return users, requests, friendships, mutations, producer, svc
}

func TestSendFriendRequestPublishesEvent(t *testing.T) {
	users, _, _, _, producer, svc := newFriendRequestFixture()
	users.add(&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "alice"})
	users.add(&models.User{BaseModel: models.BaseModel{ID: 2}, Username: "bob"})

	err := svc.SendFriendRequest(context.Background(), 1, 2, "hi")
	require.NoError(t, err)
	require.Len(t, producer.sent, 1)
	require.Equal(t, "interactions", producer.sent[0].topic)

	var event kafka.InteractionEvent
	require.NoError(t, json.Unmarshal(producer.sent[0].payload, &event))
	require.Equal(t, kafka.InteractionFriendRequest, event.Kind)
	require.Equal(t, uint(1), event.ActorUserID)
	require.Equal(t, uint(2), event.RecipientUserID)
	require.Equal(t, "hi", event.Message)
	require.False(t, event.Timestamp.IsZero())
}

func TestSendFriendRequestValidation(t *testing.T) {
	users, requests, friendships, _, producer, svc := newFriendRequestFixture()
	users.add(&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "alice"})
	users.add(&models.User{BaseModel: models.BaseModel{ID: 2}, Username: "bob"})

	require.ErrorIs(t, svc.SendFriendRequest(context.Background(), 1, 1, ""), ErrFriendRequestSelf)
	require.ErrorIs(t, svc.SendFriendRequest(context.Background(), 1, 99, ""), ErrRecipientNotFound)

	friendship := &models.Friendship{UserID1: 1, UserID2: 2}
	require.NoError(t, friendships.Create(context.Background(), friendship))
	require.ErrorIs(t, svc.SendFriendRequest(context.Background(), 1, 2, ""), ErrAlreadyFriends)

	users.add(&models.User{BaseModel: models.BaseModel{ID: 3}, Username: "carol"})
	pending := &models.FriendRequest{FromUserID: 3, ToUserID: 1, Status: models.FriendRequestStatusPending}
	require.NoError(t, requests.Create(context.Background(), pending))
	require.ErrorIs(t, svc.SendFriendRequest(context.Background(), 1, 3, ""), ErrFriendRequestExists)

	require.Empty(t, producer.sent)
}

func TestAcceptFriendRequestDelegatesToBackend(t *testing.T) {
	users, requests, _, mutations, _, svc := newFriendRequestFixture()
	users.add(&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "alice"})
	users.add(&models.User{BaseModel: models.BaseModel{ID: 2}, Username: "bob"})
	pending := &models.FriendRequest{FromUserID: 1, ToUserID: 2, Status: models.FriendRequestStatusPending}
	require.NoError(t, requests.Create(context.Background(), pending))

	require.NoError(t, svc.AcceptFriendRequest(context.Background(), 2, pending.ID))
	require.Equal(t, 1, mutations.acceptCalls)
}

func TestAcceptFriendRequestRejectsWrongRecipient(t *testing.T) {
	_, requests, _, mutations, _, svc := newFriendRequestFixture()
	pending := &models.FriendRequest{FromUserID: 1, ToUserID: 2, Status: models.FriendRequestStatusPending}
	require.NoError(t, requests.Create(context.Background(), pending))

	require.ErrorIs(t, svc.AcceptFriendRequest(context.Background(), 3, pending.ID), ErrNotRecipientOfRequest)
	require.ErrorIs(t, svc.AcceptFriendRequest(context.Background(), 2, 999), ErrFriendRequestNotFound)
	require.Zero(t, mutations.acceptCalls)
}

func TestDeclineFriendRequestRejectsSettledRequest(t *testing.T) {
	_, requests, _, mutations, _, svc := newFriendRequestFixture()
	settled := &models.FriendRequest{FromUserID: 1, ToUserID: 2, Status: models.FriendRequestStatusAccepted}
	require.NoError(t, requests.Create(context.Background(), settled))

	require.ErrorIs(t, svc.DeclineFriendRequest(context.Background(), 2, settled.ID), ErrRequestNotPending)
	require.Zero(t, mutations.declineCalls)
}

func TestListPendingRequestsAttachesSenders(t *testing.T) {
	users, requests, _, _, _, svc := newFriendRequestFixture()
	users.add(&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "alice", Name: "Alice"})
	pending := &models.FriendRequest{FromUserID: 1, ToUserID: 2, Status: models.FriendRequestStatusPending}
	require.NoError(t, requests.Create(context.Background(), pending))

	result, err := svc.ListPendingRequests(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "alice", result[0].Sender.Username)
}
