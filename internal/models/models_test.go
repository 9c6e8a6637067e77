package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicInfoAvatarFallback(t *testing.T) {
	user := &User{
		BaseModel:    BaseModel{ID: 1},
		Username:     "ada",
		Name:         "Ada",
		ProfilePhoto: "http://a/photo.png",
		AvatarURL:    "http://a/avatar.png",
	}
	require.Equal(t, "http://a/photo.png", user.BasicInfo().AvatarURL)

	user.ProfilePhoto = ""
	require.Equal(t, "http://a/avatar.png", user.BasicInfo().AvatarURL)

	user.AvatarURL = ""
	require.Empty(t, user.BasicInfo().AvatarURL)
}

func TestNotificationTypeIsPostActivity(t *testing.T) {
	require.True(t, NotificationTypeLike.IsPostActivity())
	require.True(t, NotificationTypeComment.IsPostActivity())
	require.True(t, NotificationTypeTag.IsPostActivity())
	require.True(t, NotificationTypeMention.IsPostActivity())
	require.False(t, NotificationTypeGroupInvitation.IsPostActivity())
	require.False(t, NotificationType("unknown").IsPostActivity())
}

func TestFriendshipCanonicalOrder(t *testing.T) {
	friendship := &Friendship{UserID1: 9, UserID2: 3}
	friendship.EnsureCanonicalOrder()
	require.Equal(t, uint(3), friendship.UserID1)
	require.Equal(t, uint(9), friendship.UserID2)

	ordered := &Friendship{UserID1: 1, UserID2: 2}
	ordered.EnsureCanonicalOrder()
	require.Equal(t, uint(1), ordered.UserID1)
	require.Equal(t, uint(2), ordered.UserID2)
}
