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

// fakeBackend is a scriptable Backend. Feed events are pushed by hand,
// lookups are served from maps, and individual lookups or mutations can
// be gated on channels to exercise in-flight interleavings.
type fakeBackend struct {
	mu sync.Mutex

	requestSubs      []func(FriendRequestEvent)
	notificationSubs []func(NotificationEvent)
	requestSubCount  int
	notifSubCount    int
	unsubscribed     int

	profiles     map[uint]*Sender
	groups       map[uint]*GroupInfo
	profileGates map[uint]chan struct{}

	acceptRequestCalls  int
	declineRequestCalls int
	acceptInviteCalls   int
	declineInviteCalls  int
	markReadCalls       int
	deleteCalls         [][]string

	acceptRequestGate chan struct{}
	deleteGate        chan struct{}

	acceptRequestErr error
	deleteErr        error
	markReadErr      error
	requestSubErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles:     make(map[uint]*Sender),
		groups:       make(map[uint]*GroupInfo),
		profileGates: make(map[uint]chan struct{}),
	}
}

func (f *fakeBackend) SubscribeFriendRequests(ctx context.Context, ownerID uint, onEvent func(FriendRequestEvent)) (UnsubscribeFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestSubErr != nil {
		return nil, f.requestSubErr
	}
	f.requestSubs = append(f.requestSubs, onEvent)
	f.requestSubCount++
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}, nil
}

func (f *fakeBackend) SubscribeNotifications(ctx context.Context, ownerID uint, onEvent func(NotificationEvent)) (UnsubscribeFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notificationSubs = append(f.notificationSubs, onEvent)
	f.notifSubCount++
	return func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}, nil
}

func (f *fakeBackend) pushRequests(ev FriendRequestEvent) {
	f.mu.Lock()
	subs := append([]func(FriendRequestEvent){}, f.requestSubs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *fakeBackend) pushNotifications(ev NotificationEvent) {
	f.mu.Lock()
	subs := append([]func(NotificationEvent){}, f.notificationSubs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *fakeBackend) ProfileByID(ctx context.Context, userID uint) (*Sender, error) {
	f.mu.Lock()
	gate := f.profileGates[userID]
	profile := f.profiles[userID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (f *fakeBackend) GroupByID(ctx context.Context, groupID uint) (*GroupInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	group := f.groups[groupID]
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

func (f *fakeBackend) AcceptFriendRequest(ctx context.Context, requestID, fromUserID, toUserID uint) error {
	f.mu.Lock()
	f.acceptRequestCalls++
	gate := f.acceptRequestGate
	err := f.acceptRequestErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeBackend) DeclineFriendRequest(ctx context.Context, requestID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declineRequestCalls++
	return nil
}

func (f *fakeBackend) AcceptGroupInvitation(ctx context.Context, groupID, userID uint, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acceptInviteCalls++
	return nil
}

func (f *fakeBackend) DeclineGroupInvitation(ctx context.Context, notificationID string, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declineInviteCalls++
	return nil
}

func (f *fakeBackend) MarkNotificationRead(ctx context.Context, userID uint, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls++
	return f.markReadErr
}

func (f *fakeBackend) DeleteNotifications(ctx context.Context, userID uint, ids []string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, append([]string{}, ids...))
	gate := f.deleteGate
	err := f.deleteErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func startedCenter(t *testing.T, f *fakeBackend) *Center {
	t.Helper()
	c := New(f, 42, zerolog.Nop())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func postID(id uint) *uint { return &id }

func TestAggregatesAllThreeFeeds(t *testing.T) {
	f := newFakeBackend()
	f.profiles[7] = &Sender{ID: 7, Name: "Ada", Username: "ada"}
	f.groups[3] = &GroupInfo{ID: 3, Name: "Climbers"}
	c := startedCenter(t, f)

	f.pushRequests(FriendRequestEvent{Requests: []FriendRequest{
		{ID: 1, FromUserID: 7, ToUserID: 42},
	}})
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n1", Kind: KindGroupInvitation, FromUserID: 7, GroupID: postID(3)},
		{ID: "n2", Kind: KindLike, FromUserID: 7, FromName: "Ada", FromUsername: "ada", PostID: postID(9)},
	}})

	eventually(t, func() bool {
		v := c.View()
		return len(v.Requests) == 1 && len(v.Invitations) == 1 && len(v.Posts) == 1
	})

	v := c.View()
	require.True(t, v.HasNotifications)
	require.Equal(t, "Ada", v.Requests[0].Sender.Name)
	require.Equal(t, "Climbers", v.Invitations[0].Group.Name)
	require.Equal(t, "n2", v.Posts[0].ID)
}

func TestProjectionsAreMutuallyExclusive(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "inv", Kind: KindGroupInvitation, FromUserID: 1, GroupID: postID(3)},
		{ID: "like", Kind: KindLike, FromUserID: 1, PostID: postID(9)},
		{ID: "readInv", Kind: KindGroupInvitation, FromUserID: 1, GroupID: postID(3), Read: true},
		{ID: "noPost", Kind: KindComment, FromUserID: 1}, // post-kind without a post reference
	}})

	eventually(t, func() bool {
		v := c.View()
		return len(v.Invitations) == 1 && len(v.Posts) == 1
	})

	v := c.View()
	require.Equal(t, "inv", v.Invitations[0].ID)
	require.Equal(t, "like", v.Posts[0].ID)
}

func TestReadPostNotificationsAreKept(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "a", Kind: KindLike, FromUserID: 1, PostID: postID(1), Read: true},
		{ID: "b", Kind: KindComment, FromUserID: 1, PostID: postID(2), Read: false},
	}})

	eventually(t, func() bool { return len(c.View().Posts) == 2 })
}

func TestHasNotificationsTracksAllLists(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	require.False(t, c.View().HasNotifications)

	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n1", Kind: KindLike, FromUserID: 1, PostID: postID(9)},
	}})
	eventually(t, func() bool { return c.View().HasNotifications })

	f.pushNotifications(NotificationEvent{Notifications: nil})
	eventually(t, func() bool { return !c.View().HasNotifications })
}

func TestFeedErrorClearsOnlyThatFeed(t *testing.T) {
	f := newFakeBackend()
	f.profiles[7] = &Sender{ID: 7, Name: "Ada", Username: "ada"}
	c := startedCenter(t, f)

	f.pushRequests(FriendRequestEvent{Requests: []FriendRequest{{ID: 1, FromUserID: 7, ToUserID: 42}}})
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n1", Kind: KindLike, FromUserID: 7, PostID: postID(9)},
	}})
	eventually(t, func() bool {
		v := c.View()
		return len(v.Requests) == 1 && len(v.Posts) == 1
	})

	f.pushNotifications(NotificationEvent{Err: context.DeadlineExceeded})
	eventually(t, func() bool { return len(c.View().Posts) == 0 })

	// the friend-request feed keeps operating
	v := c.View()
	require.Len(t, v.Requests, 1)
	require.True(t, v.HasNotifications)
}

func TestStaleEnrichmentBatchIsDiscarded(t *testing.T) {
	f := newFakeBackend()
	gate := make(chan struct{})
	f.profileGates[100] = gate // snapshot A's sender lookup blocks
	f.profiles[100] = &Sender{ID: 100, Name: "Slow", Username: "slow"}
	f.profiles[200] = &Sender{ID: 200, Name: "Fast", Username: "fast"}
	c := startedCenter(t, f)

	// Snapshot A starts enriching and parks on the gated lookup.
	f.pushRequests(FriendRequestEvent{Requests: []FriendRequest{{ID: 1, FromUserID: 100, ToUserID: 42}}})
	// Snapshot B arrives before A resolves, and resolves first.
	f.pushRequests(FriendRequestEvent{Requests: []FriendRequest{{ID: 2, FromUserID: 200, ToUserID: 42}}})

	eventually(t, func() bool {
		v := c.View()
		return len(v.Requests) == 1 && v.Requests[0].ID == 2
	})

	// Let A's batch finish; it must be discarded, not applied.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	v := c.View()
	require.Len(t, v.Requests, 1)
	require.Equal(t, uint(2), v.Requests[0].ID)
	require.Equal(t, "Fast", v.Requests[0].Sender.Name)
}

func TestStopClearsStateAndSilencesFeeds(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n1", Kind: KindLike, FromUserID: 1, PostID: postID(9)},
	}})
	eventually(t, func() bool { return c.View().HasNotifications })

	c.Stop()
	require.False(t, c.View().HasNotifications)
	require.Empty(t, c.View().Posts)

	// Events from the torn-down generation must not resurrect state.
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n2", Kind: KindLike, FromUserID: 1, PostID: postID(9)},
	}})
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, c.View().Posts)
}

func TestRefreshReplacesSubscriptions(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	require.NoError(t, c.Refresh())

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 2, f.requestSubCount)
	require.Equal(t, 2, f.notifSubCount)
	require.Equal(t, 2, f.unsubscribed)
}

func TestRefreshRetriesAfterFailedResubscribe(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	f.mu.Lock()
	f.requestSubErr = errors.New("broker down")
	f.mu.Unlock()
	require.Error(t, c.Refresh())

	// The old subscriptions are gone; the next Refresh must try again
	// instead of treating the center as dead.
	f.mu.Lock()
	f.requestSubErr = nil
	f.mu.Unlock()
	require.NoError(t, c.Refresh())

	f.mu.Lock()
	requestSubs := f.requestSubCount
	notifSubs := f.notifSubCount
	f.mu.Unlock()
	require.Equal(t, 2, requestSubs)
	require.Equal(t, 2, notifSubs)

	// and the recovered subscription is live
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "n1", Kind: KindLike, FromUserID: 1, PostID: postID(9)},
	}})
	eventually(t, func() bool { return c.View().HasNotifications })
}

func TestRefreshAfterStopIsNoOp(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)
	c.Stop()

	require.NoError(t, c.Refresh())

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, 1, f.requestSubCount)
	require.Equal(t, 1, f.notifSubCount)
}

func TestLateViewDeliveryIsDropped(t *testing.T) {
	c := New(newFakeBackend(), 42, zerolog.Nop())
	var mu sync.Mutex
	var delivered []AggregatedView
	c.SetOnChange(func(v AggregatedView) {
		mu.Lock()
		delivered = append(delivered, v)
		mu.Unlock()
	})

	newer := AggregatedView{HasNotifications: true}
	c.emit(2, newer)
	c.emit(1, AggregatedView{}) // committed first, delivered late

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	require.True(t, delivered[0].HasNotifications)
}

func TestDiffPatchesReadInPlaceAcrossSnapshots(t *testing.T) {
	f := newFakeBackend()
	c := startedCenter(t, f)

	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "a", Kind: KindLike, FromUserID: 1, PostID: postID(1)},
		{ID: "b", Kind: KindComment, FromUserID: 1, PostID: postID(2)},
	}})
	eventually(t, func() bool { return len(c.View().Posts) == 2 })

	before := c.View().Posts

	// Same membership, only "a" flips to read.
	f.pushNotifications(NotificationEvent{Notifications: []Notification{
		{ID: "a", Kind: KindLike, FromUserID: 1, PostID: postID(1), Read: true},
		{ID: "b", Kind: KindComment, FromUserID: 1, PostID: postID(2)},
	}})
	eventually(t, func() bool {
		v := c.View()
		return len(v.Posts) == 2 && v.Posts[0].Read
	})

	after := c.View().Posts
	require.Same(t, before[0], after[0])
	require.Same(t, before[1], after[1])
	require.False(t, after[1].Read)
}
