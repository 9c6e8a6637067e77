package center

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Center aggregates a user's live feeds (friend requests, group
// invitations, post activity) into one stable view, and coordinates the
// accept/decline/delete actions against the backend.
//
// One Center serves one signed-in user. Its lifecycle is explicit:
// Start opens the feed subscriptions, Stop tears everything down and
// clears local state. The backend is the single source of truth:
// actions mutate it and the result is observed through the next feed
// snapshot, never through local optimistic edits.
type Center struct {
	backend Backend
	ownerID uint
	logger  zerolog.Logger

	// onChange and onNotice are set before Start and never written
	// afterwards. onChange receives the new view after every commit;
	// onNotice receives transient user-facing failure messages.
	onChange func(AggregatedView)
	onNotice func(string)

	mu          sync.Mutex
	started     bool
	parent      context.Context
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe []UnsubscribeFunc

	// viewSeq stamps each committed view under mu. emitMu serializes
	// delivery to onChange; lastEmit drops a delivery whose commit was
	// superseded before it reached the listener.
	viewSeq  uint64
	emitMu   sync.Mutex
	lastEmit uint64

	// epoch identifies the current subscription generation. Stop and
	// Refresh bump it; events and enrichment batches carrying an older
	// epoch are discarded on arrival.
	epoch uint64

	// per-feed enrichment batch sequence, so a late batch from an
	// earlier snapshot of the same subscription never clobbers a newer
	// one.
	requestBatch      uint64
	notificationBatch uint64

	requests    []*FriendRequestView
	invitations []*GroupInvitationView
	posts       []*PostNotificationView
	hasAny      bool

	// at most one in-flight operation per action family
	processingRequestID    uint
	processingInvitationID string
	markingReadID          string
	clearing               bool

	selectionMode bool
	selected      map[string]struct{}
}

// New creates a Center for the given user. Call SetOnChange/SetOnNotice
// before Start.
func New(backend Backend, ownerID uint, logger zerolog.Logger) *Center {
	return &Center{
		backend:  backend,
		ownerID:  ownerID,
		logger:   logger.With().Str("component", "center").Uint("ownerId", ownerID).Logger(),
		selected: make(map[string]struct{}),
	}
}

// SetOnChange registers the view listener. Must be called before Start.
func (c *Center) SetOnChange(fn func(AggregatedView)) { c.onChange = fn }

// SetOnNotice registers the transient-notice listener. Must be called
// before Start.
func (c *Center) SetOnNotice(fn func(string)) { c.onNotice = fn }

// Start opens both feed subscriptions. Calling Start on a started
// Center is a no-op.
func (c *Center) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.parent = ctx
	return c.subscribeLocked()
}

// subscribeLocked opens a fresh subscription generation. The epoch is
// captured into the event callbacks so that anything still arriving
// from a previous generation is dropped.
func (c *Center) subscribeLocked() error {
	ctx, cancel := context.WithCancel(c.parent)
	epoch := c.epoch

	unsubRequests, err := c.backend.SubscribeFriendRequests(ctx, c.ownerID, func(ev FriendRequestEvent) {
		c.handleRequestEvent(epoch, ev)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to friend requests: %w", err)
	}

	unsubNotifications, err := c.backend.SubscribeNotifications(ctx, c.ownerID, func(ev NotificationEvent) {
		c.handleNotificationEvent(epoch, ev)
	})
	if err != nil {
		unsubRequests()
		cancel()
		return fmt.Errorf("subscribing to notifications: %w", err)
	}

	c.ctx = ctx
	c.cancel = cancel
	c.unsubscribe = []UnsubscribeFunc{unsubRequests, unsubNotifications}
	c.started = true
	return nil
}

// teardownLocked closes the current subscription generation and
// invalidates every outstanding callback and enrichment batch.
func (c *Center) teardownLocked() {
	c.epoch++
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.started = false
}

// Stop unsubscribes all feeds and clears local state. Used on sign-out
// and on disposal of the owning session. After Stop, Refresh is a
// no-op until Start is called again.
func (c *Center) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.teardownLocked()
	c.parent = nil
	c.requests = nil
	c.invitations = nil
	c.posts = nil
	c.hasAny = false
	c.selectionMode = false
	c.selected = make(map[string]struct{})
}

// Refresh fully replaces both subscriptions. A replacement, not a
// re-request, is required to bypass the backend's subscription cache.
// Current lists are kept until the fresh snapshots arrive. A failed
// resubscribe leaves the center refreshable: the next Refresh tries
// again rather than discovering a torn-down center and giving up.
func (c *Center) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parent == nil {
		return nil
	}
	if c.started {
		c.teardownLocked()
	}
	if err := c.subscribeLocked(); err != nil {
		c.logger.Error().Err(err).Msg("refresh failed to resubscribe")
		return err
	}
	return nil
}

// View returns the current aggregated view. The item pointers are
// shared; callers treat them as read-only.
func (c *Center) View() AggregatedView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Center) viewLocked() AggregatedView {
	view := AggregatedView{
		Requests:         make([]*FriendRequestView, len(c.requests)),
		Invitations:      make([]*GroupInvitationView, len(c.invitations)),
		Posts:            make([]*PostNotificationView, len(c.posts)),
		HasNotifications: c.hasAny,
	}
	copy(view.Requests, c.requests)
	copy(view.Invitations, c.invitations)
	copy(view.Posts, c.posts)
	return view
}

// recomputeLocked rederives the has-notifications flag. It is a pure
// function of the three lists and is never cached across commits.
func (c *Center) recomputeLocked() {
	c.hasAny = len(c.requests) > 0 || len(c.invitations) > 0 || len(c.posts) > 0
}

// commitLocked stamps the current state as the next view in commit
// order. The caller emits the returned pair after releasing mu.
func (c *Center) commitLocked() (uint64, AggregatedView) {
	c.viewSeq++
	return c.viewSeq, c.viewLocked()
}

// emit delivers one committed view. Delivery happens outside mu, so a
// goroutine carrying an older commit can arrive after a newer one was
// already delivered; such stale deliveries are dropped. The callback
// runs under emitMu, so the listener observes views in commit order.
func (c *Center) emit(seq uint64, view AggregatedView) {
	if c.onChange == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if seq <= c.lastEmit {
		return
	}
	c.lastEmit = seq
	c.onChange(view)
}

// notice delivers a transient failure message, unless the center was
// torn down while the failing call was in flight.
func (c *Center) notice(msg string) {
	if c.onNotice == nil {
		return
	}
	c.mu.Lock()
	stopped := c.parent == nil
	c.mu.Unlock()
	if stopped {
		return
	}
	c.onNotice(msg)
}

// handleRequestEvent processes one friend-request feed emission.
func (c *Center) handleRequestEvent(epoch uint64, ev FriendRequestEvent) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}

	if ev.Err != nil {
		// A feed error is scoped to its own feed: clear the derived
		// list, keep the other feeds running. Recovery comes from the
		// next snapshot or an explicit refresh.
		c.logger.Warn().Err(ev.Err).Msg("friend request feed error")
		c.requestBatch++
		c.requests = nil
		c.recomputeLocked()
		seq, view := c.commitLocked()
		c.mu.Unlock()
		c.emit(seq, view)
		return
	}

	c.requestBatch++
	batch := c.requestBatch
	ctx := c.ctx
	items := ev.Requests
	c.mu.Unlock()

	go func() {
		views := c.enrichRequests(ctx, items)

		c.mu.Lock()
		if epoch != c.epoch || batch != c.requestBatch {
			// a newer snapshot or a refresh superseded this batch
			c.mu.Unlock()
			return
		}
		c.requests = views
		c.recomputeLocked()
		seq, view := c.commitLocked()
		c.mu.Unlock()
		c.emit(seq, view)
	}()
}

// handleNotificationEvent processes one combined-feed emission and
// derives both client-side projections from it.
func (c *Center) handleNotificationEvent(epoch uint64, ev NotificationEvent) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}

	if ev.Err != nil {
		c.logger.Warn().Err(ev.Err).Msg("notification feed error")
		c.notificationBatch++
		c.invitations = nil
		c.posts = nil
		c.recomputeLocked()
		seq, view := c.commitLocked()
		c.mu.Unlock()
		c.emit(seq, view)
		return
	}

	c.notificationBatch++
	batch := c.notificationBatch
	ctx := c.ctx
	items := ev.Notifications
	c.mu.Unlock()

	go func() {
		// Invitations: unread group invitations only. Post activity:
		// all post-kind items with a post reference, read or not.
		// Read ones render de-emphasized, they are not filtered here.
		var rawInvitations, rawPosts []Notification
		for _, n := range items {
			switch {
			case n.Kind == KindGroupInvitation && !n.Read:
				rawInvitations = append(rawInvitations, n)
			case n.Kind.IsPostActivity() && n.PostID != nil:
				rawPosts = append(rawPosts, n)
			}
		}

		invitations := c.enrichInvitations(ctx, rawInvitations)
		posts := buildPostViews(rawPosts)

		c.mu.Lock()
		if epoch != c.epoch || batch != c.notificationBatch {
			c.mu.Unlock()
			return
		}
		c.invitations = invitations
		c.posts = mergePosts(c.posts, posts)
		c.pruneSelectionLocked()
		c.recomputeLocked()
		seq, view := c.commitLocked()
		c.mu.Unlock()
		c.emit(seq, view)
	}()
}

// pruneSelectionLocked drops selected ids that left the post list, so a
// stale selection cannot survive a membership change.
func (c *Center) pruneSelectionLocked() {
	if len(c.selected) == 0 {
		return
	}
	visible := make(map[string]struct{}, len(c.posts))
	for _, p := range c.posts {
		visible[p.ID] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := visible[id]; !ok {
			delete(c.selected, id)
		}
	}
}
