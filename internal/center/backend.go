package center

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backend lookups when the referenced record
// does not exist. The enrichment resolver turns it into a placeholder.
var ErrNotFound = errors.New("not found")

// UnsubscribeFunc tears down a live feed subscription. After it returns
// the subscription delivers no further events.
type UnsubscribeFunc func()

// FriendRequestEvent is one emission from the friend-request feed.
// Requests is the full current snapshot, not a delta: every event after
// the first replaces the previous raw item set wholesale.
type FriendRequestEvent struct {
	Requests []FriendRequest
	Err      error
}

// NotificationEvent is one emission from the combined notification feed.
type NotificationEvent struct {
	Notifications []Notification
	Err           error
}

// Backend is the external store boundary the center is built against.
// Subscriptions push full snapshots; mutations are confirmed server
// side and become visible through the next snapshot, never through
// local optimistic edits.
type Backend interface {
	SubscribeFriendRequests(ctx context.Context, ownerID uint, onEvent func(FriendRequestEvent)) (UnsubscribeFunc, error)
	SubscribeNotifications(ctx context.Context, ownerID uint, onEvent func(NotificationEvent)) (UnsubscribeFunc, error)

	ProfileByID(ctx context.Context, userID uint) (*Sender, error)
	GroupByID(ctx context.Context, groupID uint) (*GroupInfo, error)

	AcceptFriendRequest(ctx context.Context, requestID, fromUserID, toUserID uint) error
	DeclineFriendRequest(ctx context.Context, requestID uint) error
	AcceptGroupInvitation(ctx context.Context, groupID, userID uint, notificationID string) error
	DeclineGroupInvitation(ctx context.Context, notificationID string, userID uint) error
	MarkNotificationRead(ctx context.Context, userID uint, notificationID string) error
	DeleteNotifications(ctx context.Context, userID uint, ids []string) error
}
