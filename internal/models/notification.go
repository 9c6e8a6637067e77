package models

import "time"

// NotificationType distinguishes the kinds of in-app notifications.
type NotificationType string

const (
	NotificationTypeGroupInvitation NotificationType = "group_invitation"
	NotificationTypeLike            NotificationType = "like"
	NotificationTypeComment         NotificationType = "comment"
	NotificationTypeTag             NotificationType = "tag"
	NotificationTypeMention         NotificationType = "mention"
)

// IsPostActivity reports whether the type belongs to the post-activity
// family (as opposed to group invitations).
func (t NotificationType) IsPostActivity() bool {
	switch t {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeTag, NotificationTypeMention:
		return true
	}
	return false
}

// Notification is the generic in-app notification envelope. Rows are
// created by the interaction consumer, mutated only through the read
// flag, and removed by hard delete.
//
// The From* display fields are a denormalized snapshot of the sender at
// creation time so that post-activity feeds render without a profile
// lookup per item.
type Notification struct {
	ID              string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	RecipientUserID uint             `gorm:"not null;index" json:"recipientUserId"`
	Type            NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	FromUserID      uint             `gorm:"not null" json:"fromUserId"`
	FromUsername    string           `gorm:"type:varchar(100)" json:"fromUsername,omitempty"`
	FromName        string           `gorm:"type:varchar(100)" json:"fromName,omitempty"`
	FromAvatarURL   string           `gorm:"type:varchar(255)" json:"fromAvatarUrl,omitempty"`
	Read            bool             `gorm:"not null;default:false;index" json:"read"`
	PostID          *uint            `json:"postId,omitempty"`
	GroupID         *uint            `json:"groupId,omitempty"`
	Message         string           `gorm:"type:text" json:"message,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// TableName sets the table name for the Notification model.
func (Notification) TableName() string {
	return "notifications"
}
