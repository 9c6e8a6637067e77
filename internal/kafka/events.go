package kafka

import "time"

// InteractionKind identifies the social interaction that triggered an event.
type InteractionKind string

const (
	InteractionFriendRequest   InteractionKind = "friend_request"
	InteractionGroupInvitation InteractionKind = "group_invitation"
	InteractionLike            InteractionKind = "like"
	InteractionComment         InteractionKind = "comment"
	InteractionTag             InteractionKind = "tag"
	InteractionMention         InteractionKind = "mention"
)

// InteractionEvent is the payload published to the interactions topic by
// the API servers. The feed server consumer turns each event into a
// friend request or notification row for the recipient.
type InteractionEvent struct {
	Kind            InteractionKind `json:"kind"`
	ActorUserID     uint            `json:"actorUserId"`
	RecipientUserID uint            `json:"recipientUserId"`
	PostID          *uint           `json:"postId,omitempty"`
	GroupID         *uint           `json:"groupId,omitempty"`
	Message         string          `json:"message,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// DeliveryEvent is published to the delivery topic after a mutation is
// confirmed, for downstream push transports (APNs/FCM bridges and the
// like) that live outside this repository.
type DeliveryEvent struct {
	Action    string    `json:"action"` // e.g. "friend_request_accepted", "notifications_deleted"
	UserIDs   []uint    `json:"userIds"`
	Timestamp time.Time `json:"timestamp"`
}
