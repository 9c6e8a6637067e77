package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"notifyhub/internal/models"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (f *fakeUserRepo) add(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email != "" && user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user.BasicInfo(), nil
}

func (f *fakeUserRepo) SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error) {
	var result []models.User
	for _, user := range f.users {
		if user.ID == currentUserID {
			continue
		}
		if strings.Contains(user.Username, query) || strings.Contains(user.Name, query) {
			result = append(result, *user)
		}
	}
	return result, nil
}

type fakeFriendRequestRepo struct {
	requests map[uint]*models.FriendRequest
	nextID   uint
}

func newFakeFriendRequestRepo() *fakeFriendRequestRepo {
	return &fakeFriendRequestRepo{requests: make(map[uint]*models.FriendRequest), nextID: 1}
}

func (f *fakeFriendRequestRepo) Create(ctx context.Context, request *models.FriendRequest) error {
	request.ID = f.nextID
	f.nextID++
	f.requests[request.ID] = request
	return nil
}

func (f *fakeFriendRequestRepo) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	request, ok := f.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (f *fakeFriendRequestRepo) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	for _, request := range f.requests {
		if request.Status != models.FriendRequestStatusPending {
			continue
		}
		if (request.FromUserID == userID1 && request.ToUserID == userID2) ||
			(request.FromUserID == userID2 && request.ToUserID == userID1) {
			return request, nil
		}
	}
	return nil, nil
}

func (f *fakeFriendRequestRepo) ListPendingForUser(ctx context.Context, toUserID uint) ([]models.FriendRequest, error) {
	var result []models.FriendRequest
	for _, request := range f.requests {
		if request.ToUserID == toUserID && request.Status == models.FriendRequestStatusPending {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (f *fakeFriendRequestRepo) UpdateStatus(ctx context.Context, requestID uint, status models.FriendRequestStatus) error {
	if request, ok := f.requests[requestID]; ok {
		request.Status = status
	}
	return nil
}

func (f *fakeFriendRequestRepo) Delete(ctx context.Context, requestID uint) error {
	delete(f.requests, requestID)
	return nil
}

type fakeFriendshipRepo struct {
	friendships []*models.Friendship
}

func (f *fakeFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	f.friendships = append(f.friendships, friendship)
	return nil
}

func (f *fakeFriendshipRepo) AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	pair := &models.Friendship{UserID1: userID1, UserID2: userID2}
	pair.EnsureCanonicalOrder()
	for _, friendship := range f.friendships {
		if friendship.UserID1 == pair.UserID1 && friendship.UserID2 == pair.UserID2 {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFriendshipRepo) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, friendship := range f.friendships {
		switch userID {
		case friendship.UserID1:
			ids = append(ids, friendship.UserID2)
		case friendship.UserID2:
			ids = append(ids, friendship.UserID1)
		}
	}
	return ids, nil
}

type fakeNotificationRepo struct {
	notifications map[string]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[string]*models.Notification)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.notifications[notification.ID] = notification
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	notification, ok := f.notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return notification, nil
}

func (f *fakeNotificationRepo) ListForUser(ctx context.Context, recipientUserID uint) ([]models.Notification, error) {
	var result []models.Notification
	for _, notification := range f.notifications {
		if notification.RecipientUserID == recipientUserID {
			result = append(result, *notification)
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, recipientUserID uint, id string) error {
	if notification, ok := f.notifications[id]; ok && notification.RecipientUserID == recipientUserID {
		notification.Read = true
	}
	return nil
}

func (f *fakeNotificationRepo) Delete(ctx context.Context, recipientUserID uint, id string) error {
	if notification, ok := f.notifications[id]; ok && notification.RecipientUserID == recipientUserID {
		delete(f.notifications, id)
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteMany(ctx context.Context, recipientUserID uint, ids []string) error {
	for _, id := range ids {
		_ = f.Delete(ctx, recipientUserID, id)
	}
	return nil
}

type sentMessage struct {
	topic   string
	key     []byte
	payload []byte
}

type fakeProducer struct {
	sent []sentMessage
	err  error
}

func (f *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, payload: payload})
	return nil
}

func (f *fakeProducer) Close() {}

type fakeChangePublisher struct {
	published [][]uint
}

func (f *fakeChangePublisher) PublishAll(ctx context.Context, userIDs ...uint) {
	f.published = append(f.published, userIDs)
}
