package models

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusDeclined FriendRequestStatus = "declined"
)

// FriendRequest is one pending (or historical) friend request record.
// Declining deletes the row; accepting flips the status and creates a
// Friendship, either way the request drops out of the pending feed.
type FriendRequest struct {
	BaseModel
	FromUserID uint                `gorm:"not null;index:idx_friend_request_users"`
	ToUserID   uint                `gorm:"not null;index:idx_friend_request_users"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Message    string              `gorm:"type:text"`
}

// FriendRequestWithSender is a DTO pairing a friend request with the
// basic info of the user who sent it.
type FriendRequestWithSender struct {
	FriendRequest
	Sender *UserBasicInfo `json:"sender"`
}
