package center

import "time"

// Kind distinguishes the notification kinds the center understands.
type Kind string

const (
	KindGroupInvitation Kind = "group_invitation"
	KindLike            Kind = "like"
	KindComment         Kind = "comment"
	KindTag             Kind = "tag"
	KindMention         Kind = "mention"
)

// IsPostActivity reports whether the kind belongs to the post-activity
// projection. Group invitations and post activity are mutually
// exclusive: a notification is projected into exactly one list.
func (k Kind) IsPostActivity() bool {
	switch k {
	case KindLike, KindComment, KindTag, KindMention:
		return true
	}
	return false
}

// Sender is the display identity attached to enriched items.
type Sender struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// PlaceholderSender is the deterministic fallback used when a profile
// lookup fails or the user record is missing. Items are never dropped
// because their sender could not be resolved.
func PlaceholderSender(id uint) Sender {
	return Sender{ID: id, Name: "Unknown User", Username: "unknown"}
}

// GroupInfo is the display metadata attached to enriched invitations.
type GroupInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FriendRequest is one raw friend-request feed item.
type FriendRequest struct {
	ID         uint      `json:"id"`
	FromUserID uint      `json:"fromUserId"`
	ToUserID   uint      `json:"toUserId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notification is one raw item from the combined notification feed.
// The From* fields are a display snapshot carried by the feed itself so
// post activity renders without a per-item profile lookup.
type Notification struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"type"`
	FromUserID    uint      `json:"fromUserId"`
	FromUsername  string    `json:"fromUsername,omitempty"`
	FromName      string    `json:"fromName,omitempty"`
	FromAvatarURL string    `json:"fromAvatarUrl,omitempty"`
	Read          bool      `json:"read"`
	PostID        *uint     `json:"postId,omitempty"`
	GroupID       *uint     `json:"groupId,omitempty"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FriendRequestView is an enriched friend request.
type FriendRequestView struct {
	FriendRequest
	Sender Sender `json:"sender"`
}

// GroupInvitationView is an enriched group invitation. Group is nil
// when the raw notification carries no group reference; accepting such
// an invitation is disabled pre-flight.
type GroupInvitationView struct {
	Notification
	Sender Sender     `json:"sender"`
	Group  *GroupInfo `json:"group,omitempty"`
}

// PostNotificationView is a post-activity notification ready for display.
type PostNotificationView struct {
	Notification
	Sender Sender `json:"sender"`
}

// AggregatedView is the stable merged view of all three feeds. It is
// owned by the Center; consumers read it and call the Center's action
// entry points, they never mutate the lists.
type AggregatedView struct {
	Requests         []*FriendRequestView    `json:"requestsWithData"`
	Invitations      []*GroupInvitationView  `json:"invitationsWithData"`
	Posts            []*PostNotificationView `json:"postNotifications"`
	HasNotifications bool                    `json:"hasNotifications"`
}
