package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"notifyhub/internal/center"
)

// stubBackend is the minimal Backend needed to run a Center against a
// live feed: one scripted friend-request feed and a gated accept call.
type stubBackend struct {
	mu         sync.Mutex
	requestSub func(center.FriendRequestEvent)

	acceptGate chan struct{}
	acceptErr  error
}

func (s *stubBackend) SubscribeFriendRequests(ctx context.Context, ownerID uint, onEvent func(center.FriendRequestEvent)) (center.UnsubscribeFunc, error) {
	s.mu.Lock()
	s.requestSub = onEvent
	s.mu.Unlock()
	return func() {}, nil
}

func (s *stubBackend) SubscribeNotifications(ctx context.Context, ownerID uint, onEvent func(center.NotificationEvent)) (center.UnsubscribeFunc, error) {
	return func() {}, nil
}

func (s *stubBackend) pushRequests(ev center.FriendRequestEvent) {
	s.mu.Lock()
	sub := s.requestSub
	s.mu.Unlock()
	if sub != nil {
		sub(ev)
	}
}

func (s *stubBackend) ProfileByID(ctx context.Context, userID uint) (*center.Sender, error) {
	return &center.Sender{ID: userID, Name: "Ada", Username: "ada"}, nil
}

func (s *stubBackend) GroupByID(ctx context.Context, groupID uint) (*center.GroupInfo, error) {
	return nil, center.ErrNotFound
}

func (s *stubBackend) AcceptFriendRequest(ctx context.Context, requestID, fromUserID, toUserID uint) error {
	if s.acceptGate != nil {
		<-s.acceptGate
	}
	return s.acceptErr
}

func (s *stubBackend) DeclineFriendRequest(ctx context.Context, requestID uint) error { return nil }

func (s *stubBackend) AcceptGroupInvitation(ctx context.Context, groupID, userID uint, notificationID string) error {
	return nil
}

func (s *stubBackend) DeclineGroupInvitation(ctx context.Context, notificationID string, userID uint) error {
	return nil
}

func (s *stubBackend) MarkNotificationRead(ctx context.Context, userID uint, notificationID string) error {
	return nil
}

func (s *stubBackend) DeleteNotifications(ctx context.Context, userID uint, ids []string) error {
	return nil
}

func TestEnqueueAfterCloseDropsFrame(t *testing.T) {
	c := &Client{send: make(chan []byte, 2), logger: zerolog.Nop()}

	c.enqueue([]byte("one"))
	c.closeSend()
	c.closeSend()             // second close is a no-op
	c.enqueue([]byte("late")) // must be dropped, not panic

	require.Equal(t, []byte("one"), <-c.send)
	_, open := <-c.send
	require.False(t, open)
}

func TestLateActionFailureAfterTeardownIsDropped(t *testing.T) {
	backend := &stubBackend{
		acceptGate: make(chan struct{}),
		acceptErr:  errors.New("backend down"),
	}
	client := &Client{send: make(chan []byte, 16), logger: zerolog.Nop()}
	c := center.New(backend, 7, zerolog.Nop())
	c.SetOnChange(client.pushView)
	c.SetOnNotice(client.pushNotice)
	client.center = c
	require.NoError(t, c.Start(context.Background()))

	backend.pushRequests(center.FriendRequestEvent{Requests: []center.FriendRequest{
		{ID: 1, FromUserID: 8, ToUserID: 7},
	}})
	require.Eventually(t, func() bool {
		return len(c.View().Requests) == 1
	}, 2*time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.Error(t, c.AcceptFriendRequest(1))
	}()
	require.Eventually(t, func() bool {
		return c.ProcessingRequestID() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The hub's teardown sequence runs while the accept is still parked
	// on the backend. The call's late failure must not reach the closed
	// send channel.
	c.Stop()
	client.closeSend()
	close(backend.acceptGate)
	wg.Wait()
}
