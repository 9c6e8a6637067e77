package backend

import (
	"context"

	"notifyhub/internal/center"
	"notifyhub/internal/models"
)

// Feed subscriptions follow a snapshot-on-signal shape: the subscriber
// gets one full snapshot immediately, then a fresh snapshot every time
// the user's change channel fires. Snapshots always carry the complete
// current set; there are no per-row deltas on the wire.

// SubscribeFriendRequests streams pending friend-request snapshots for
// the user until the returned unsubscribe function is called or ctx ends.
func (s *Store) SubscribeFriendRequests(ctx context.Context, ownerID uint, onEvent func(center.FriendRequestEvent)) (center.UnsubscribeFunc, error) {
	deliver := func() {
		rows, err := s.requests.ListPendingForUser(ctx, ownerID)
		if err != nil {
			onEvent(center.FriendRequestEvent{Err: err})
			return
		}
		requests := make([]center.FriendRequest, 0, len(rows))
		for _, row := range rows {
			requests = append(requests, center.FriendRequest{
				ID:         row.ID,
				FromUserID: row.FromUserID,
				ToUserID:   row.ToUserID,
				CreatedAt:  row.CreatedAt,
			})
		}
		onEvent(center.FriendRequestEvent{Requests: requests})
	}

	return s.runFeed(ctx, ownerID, deliver), nil
}

// SubscribeNotifications streams notification snapshots for the user.
func (s *Store) SubscribeNotifications(ctx context.Context, ownerID uint, onEvent func(center.NotificationEvent)) (center.UnsubscribeFunc, error) {
	deliver := func() {
		rows, err := s.notifications.ListForUser(ctx, ownerID)
		if err != nil {
			onEvent(center.NotificationEvent{Err: err})
			return
		}
		notifications := make([]center.Notification, 0, len(rows))
		for _, row := range rows {
			notifications = append(notifications, toCenterNotification(row))
		}
		onEvent(center.NotificationEvent{Notifications: notifications})
	}

	return s.runFeed(ctx, ownerID, deliver), nil
}

// runFeed delivers one snapshot up front, then re-delivers on every
// change signal. The initial snapshot is delivered from the pump
// goroutine, never from the subscribing call itself; subscribers hold
// their own locks while subscribing. The change subscription is scoped
// to feedCtx so the pump goroutine exits when the caller unsubscribes.
func (s *Store) runFeed(ctx context.Context, ownerID uint, deliver func()) center.UnsubscribeFunc {
	feedCtx, cancel := context.WithCancel(ctx)
	signals, stop := s.changes.Subscribe(feedCtx, ownerID)

	go func() {
		deliver()
		for {
			select {
			case <-feedCtx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	return func() {
		stop()
		cancel()
	}
}

func toCenterNotification(row models.Notification) center.Notification {
	return center.Notification{
		ID:            row.ID,
		Kind:          center.Kind(row.Type),
		FromUserID:    row.FromUserID,
		FromUsername:  row.FromUsername,
		FromName:      row.FromName,
		FromAvatarURL: row.FromAvatarURL,
		Read:          row.Read,
		PostID:        row.PostID,
		GroupID:       row.GroupID,
		Message:       row.Message,
		CreatedAt:     row.CreatedAt,
	}
}
