package center

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// resolveSender looks up a profile and falls back to the deterministic
// placeholder on any failure. Never returns an error: a broken lookup
// must not drop the item it decorates.
func (c *Center) resolveSender(ctx context.Context, userID uint) Sender {
	profile, err := c.backend.ProfileByID(ctx, userID)
	if err != nil || profile == nil {
		return PlaceholderSender(userID)
	}
	return *profile
}

// resolveGroup looks up group metadata, falling back to a named
// placeholder so the invitation still renders.
func (c *Center) resolveGroup(ctx context.Context, groupID uint) *GroupInfo {
	group, err := c.backend.GroupByID(ctx, groupID)
	if err != nil || group == nil {
		return &GroupInfo{ID: groupID, Name: "Unknown Group"}
	}
	return group
}

// enrichRequests resolves sender profiles for a full snapshot in
// parallel and returns once every lookup has settled. The caller
// commits the batch atomically, so consumers never observe a
// half-enriched list.
func (c *Center) enrichRequests(ctx context.Context, items []FriendRequest) []*FriendRequestView {
	views := make([]*FriendRequestView, len(items))
	var g errgroup.Group
	for i := range items {
		item := items[i]
		g.Go(func() error {
			views[i] = &FriendRequestView{
				FriendRequest: item,
				Sender:        c.resolveSender(ctx, item.FromUserID),
			}
			return nil
		})
	}
	_ = g.Wait()
	return views
}

// enrichInvitations resolves sender and group for each invitation. The
// two lookups per item are independent and run concurrently; either may
// fall back without affecting the other. An invitation without a group
// reference keeps Group nil.
func (c *Center) enrichInvitations(ctx context.Context, items []Notification) []*GroupInvitationView {
	views := make([]*GroupInvitationView, len(items))
	var g errgroup.Group
	for i := range items {
		item := items[i]
		views[i] = &GroupInvitationView{Notification: item}
		view := views[i]
		g.Go(func() error {
			view.Sender = c.resolveSender(ctx, item.FromUserID)
			return nil
		})
		if item.GroupID != nil {
			groupID := *item.GroupID
			g.Go(func() error {
				view.Group = c.resolveGroup(ctx, groupID)
				return nil
			})
		}
	}
	_ = g.Wait()
	return views
}

// buildPostViews projects post-activity notifications without any
// lookups: the feed carries a sender display snapshot on each item.
func buildPostViews(items []Notification) []*PostNotificationView {
	views := make([]*PostNotificationView, len(items))
	for i := range items {
		item := items[i]
		sender := Sender{
			ID:        item.FromUserID,
			Name:      item.FromName,
			Username:  item.FromUsername,
			AvatarURL: item.FromAvatarURL,
		}
		if sender.Name == "" && sender.Username == "" {
			sender = PlaceholderSender(item.FromUserID)
		}
		views[i] = &PostNotificationView{Notification: item, Sender: sender}
	}
	return views
}
