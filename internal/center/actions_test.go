package center

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func seedRequests(t *testing.T, f *fakeBackend, c *Center, ids ...uint) {
	t.Helper()
	var requests []FriendRequest
	for _, id := range ids {
		requests = append(requests, FriendRequest{ID: id, FromUserID: 100 + id, ToUserID: 42})
	}
	f.pushRequests(FriendRequestEvent{Requests: requests})
	eventually(t, func() bool { return len(c.View().Requests) == len(ids) })
}

func seedInvitation(t *testing.T, f *fakeBackend, c *Center, id string, groupID *uint) {
	t.Helper()
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: id, Kind: KindGroupInvitation, FromUserID: 1, GroupID: groupID},
	}})
	eventually(t, func() bool { return len(c.View().Invitations) == 1 })
}

func TestAcceptFriendRequestSingleFlight(t *testing.T) {
	f := newFakeBackend()
	gate := make(chan struct{})
	f.acceptRequestGate = gate
	c := startedCenter(t, f)
	seedRequests(t, f, c, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, c.AcceptFriendRequest(1))
	}()

	eventually(t, func() bool { return c.ProcessingRequestID() == 1 })

	// Re-entrant calls for the same and a different target are dropped
	// while the first is pending: no queueing, no second mutation.
	require.NoError(t, c.AcceptFriendRequest(1))
	require.NoError(t, c.DeclineFriendRequest(1))

	close(gate)
	wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.acceptRequestCalls)
	require.Equal(t, 0, f.declineRequestCalls)
}

func TestAcceptFriendRequestClearsMarkerOnFailure(t *testing.T) {
	f := newFakeBackend()
	f.acceptRequestErr = errors.New("backend down")
	var mu sync.Mutex
	var notices []string
	c := New(f, 42, zerolog.Nop())
	c.SetOnNotice(func(msg string) {
		mu.Lock()
		notices = append(notices, msg)
		mu.Unlock()
	})
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	seedRequests(t, f, c, 1)

	err := c.AcceptFriendRequest(1)
	require.Error(t, err)
	require.Zero(t, c.ProcessingRequestID())
	mu.Lock()
	require.Len(t, notices, 1)
	mu.Unlock()

	// the item stays in place; the family is usable again
	require.Len(t, c.View().Requests, 1)
	f.mu.Lock()
	f.acceptRequestErr = nil
	f.mu.Unlock()
	require.NoError(t, c.AcceptFriendRequest(1))
}

func TestAcceptUnknownRequestIsNoOp(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)
	seedRequests(t, f, c, 1)

	require.NoError(t, c.AcceptFriendRequest(999))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Zero(t, f.acceptRequestCalls)
}

func TestAcceptInvitationWithoutGroupIsDisabled(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)
	seedInvitation(t, f, c, "inv", nil)

	require.NoError(t, c.AcceptGroupInvitation("inv"))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Zero(t, f.acceptInviteCalls)
}

func TestAcceptAndDeclineInvitation(t *testing.T) {
	f := newFakeBackend()
	three := uint(3)
	f.groups[3] = &GroupInfo{ID: 3, Name: "Climbers"}
	c := startedCenter(t, f)
	seedInvitation(t, f, c, "inv", &three)

	require.NoError(t, c.AcceptGroupInvitation("inv"))
	require.NoError(t, c.DeclineGroupInvitation("inv"))
	require.Empty(t, c.ProcessingInvitationID())

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.acceptInviteCalls)
	require.Equal(t, 1, f.declineInviteCalls)
}

func TestMarkReadSkipsAlreadyReadItems(t *testing.T) {
	f := newFakeBackend()
	nine := uint(9)
	c := startedCenter(t, f)
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "a", Kind: KindLike, FromUserID: 1, PostID: &nine, Read: true},
		{ID: "b", Kind: KindLike, FromUserID: 1, PostID: &nine},
	}})
	eventually(t, func() bool { return len(c.View().Posts) == 2 })

	require.NoError(t, c.MarkRead("a")) // already read: no-op
	require.NoError(t, c.MarkRead("b"))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.markReadCalls)
}

func TestNoticeIsSilencedWhenStoppedMidAction(t *testing.T) {
	f := newFakeBackend()
	gate := make(chan struct{})
	f.acceptRequestGate = gate
	f.acceptRequestErr = errors.New("backend down")
	var mu sync.Mutex
	var notices []string
	c := New(f, 42, zerolog.Nop())
	c.SetOnNotice(func(msg string) {
		mu.Lock()
		notices = append(notices, msg)
		mu.Unlock()
	})
	require.NoError(t, c.Start(context.Background()))
	seedRequests(t, f, c, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.Error(t, c.AcceptFriendRequest(1))
	}()
	eventually(t, func() bool { return c.ProcessingRequestID() == 1 })

	// The session ends while the accept is parked on the backend. Its
	// failure must not reach the notice listener, whose transport is
	// torn down along with the session.
	c.Stop()
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, notices)
}

func TestActionsAreNoOpsWhenStopped(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)
	seedRequests(t, f, c, 1)
	c.Stop()

	require.NoError(t, c.AcceptFriendRequest(1))
	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Zero(t, f.acceptRequestCalls)
}
