package center

import (
	"fmt"
)

// Action methods share one discipline: at most one in-flight operation
// per action family, tracked by a processing marker. A call while the
// family is busy, or against a target that is not currently in the
// view, is a silent no-op, not an error and not a queue entry. The
// marker is always cleared on the way out so a backend failure can
// never wedge the family. Failures surface as notices; the target item
// stays in place and disappearance/update arrives with the next feed
// snapshot.

// AcceptFriendRequest accepts the pending request with the given id.
func (c *Center) AcceptFriendRequest(requestID uint) error {
	c.mu.Lock()
	if !c.started || c.processingRequestID != 0 {
		c.mu.Unlock()
		return nil
	}
	target := c.findRequestLocked(requestID)
	if target == nil {
		c.mu.Unlock()
		return nil
	}
	c.processingRequestID = requestID
	ctx := c.ctx
	c.mu.Unlock()

	defer c.clearRequestMarker()

	if err := c.backend.AcceptFriendRequest(ctx, target.ID, target.FromUserID, target.ToUserID); err != nil {
		c.logger.Error().Err(err).Uint("requestId", requestID).Msg("accept friend request failed")
		c.notice("Could not accept the friend request. Please try again.")
		return fmt.Errorf("accepting friend request %d: %w", requestID, err)
	}
	return nil
}

// DeclineFriendRequest declines (hard-deletes) the pending request.
func (c *Center) DeclineFriendRequest(requestID uint) error {
	c.mu.Lock()
	if !c.started || c.processingRequestID != 0 {
		c.mu.Unlock()
		return nil
	}
	if c.findRequestLocked(requestID) == nil {
		c.mu.Unlock()
		return nil
	}
	c.processingRequestID = requestID
	ctx := c.ctx
	c.mu.Unlock()

	defer c.clearRequestMarker()

	if err := c.backend.DeclineFriendRequest(ctx, requestID); err != nil {
		c.logger.Error().Err(err).Uint("requestId", requestID).Msg("decline friend request failed")
		c.notice("Could not decline the friend request. Please try again.")
		return fmt.Errorf("declining friend request %d: %w", requestID, err)
	}
	return nil
}

// AcceptGroupInvitation joins the group referenced by the invitation.
// An invitation without a group reference cannot be accepted; the
// pre-flight check makes that a no-op rather than a failed mutation.
func (c *Center) AcceptGroupInvitation(notificationID string) error {
	c.mu.Lock()
	if !c.started || c.processingInvitationID != "" {
		c.mu.Unlock()
		return nil
	}
	target := c.findInvitationLocked(notificationID)
	if target == nil || target.GroupID == nil {
		c.mu.Unlock()
		return nil
	}
	c.processingInvitationID = notificationID
	groupID := *target.GroupID
	ctx := c.ctx
	c.mu.Unlock()

	defer c.clearInvitationMarker()

	if err := c.backend.AcceptGroupInvitation(ctx, groupID, c.ownerID, notificationID); err != nil {
		c.logger.Error().Err(err).Str("notificationId", notificationID).Msg("accept group invitation failed")
		c.notice("Could not join the group. Please try again.")
		return fmt.Errorf("accepting group invitation %s: %w", notificationID, err)
	}
	return nil
}

// DeclineGroupInvitation dismisses the invitation.
func (c *Center) DeclineGroupInvitation(notificationID string) error {
	c.mu.Lock()
	if !c.started || c.processingInvitationID != "" {
		c.mu.Unlock()
		return nil
	}
	if c.findInvitationLocked(notificationID) == nil {
		c.mu.Unlock()
		return nil
	}
	c.processingInvitationID = notificationID
	ctx := c.ctx
	c.mu.Unlock()

	defer c.clearInvitationMarker()

	if err := c.backend.DeclineGroupInvitation(ctx, notificationID, c.ownerID); err != nil {
		c.logger.Error().Err(err).Str("notificationId", notificationID).Msg("decline group invitation failed")
		c.notice("Could not decline the invitation. Please try again.")
		return fmt.Errorf("declining group invitation %s: %w", notificationID, err)
	}
	return nil
}

// MarkRead flags a post notification as read. The flipped flag comes
// back through the next snapshot and is patched in place by the diff.
func (c *Center) MarkRead(notificationID string) error {
	c.mu.Lock()
	if !c.started || c.markingReadID != "" {
		c.mu.Unlock()
		return nil
	}
	target := c.findPostLocked(notificationID)
	if target == nil || target.Read {
		c.mu.Unlock()
		return nil
	}
	c.markingReadID = notificationID
	ctx := c.ctx
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.markingReadID = ""
		c.mu.Unlock()
	}()

	if err := c.backend.MarkNotificationRead(ctx, c.ownerID, notificationID); err != nil {
		c.logger.Error().Err(err).Str("notificationId", notificationID).Msg("mark read failed")
		c.notice("Could not update the notification. Please try again.")
		return fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}
	return nil
}

// ProcessingRequestID reports the friend-request id currently in
// flight, or zero. Consumers use it to disable the affected row.
func (c *Center) ProcessingRequestID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processingRequestID
}

// ProcessingInvitationID reports the invitation id currently in flight,
// or empty.
func (c *Center) ProcessingInvitationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processingInvitationID
}

func (c *Center) clearRequestMarker() {
	c.mu.Lock()
	c.processingRequestID = 0
	c.mu.Unlock()
}

func (c *Center) clearInvitationMarker() {
	c.mu.Lock()
	c.processingInvitationID = ""
	c.mu.Unlock()
}

func (c *Center) findRequestLocked(requestID uint) *FriendRequestView {
	for _, r := range c.requests {
		if r.ID == requestID {
			return r
		}
	}
	return nil
}

func (c *Center) findInvitationLocked(notificationID string) *GroupInvitationView {
	for _, inv := range c.invitations {
		if inv.ID == notificationID {
			return inv
		}
	}
	return nil
}

func (c *Center) findPostLocked(notificationID string) *PostNotificationView {
	for _, p := range c.posts {
		if p.ID == notificationID {
			return p
		}
	}
	return nil
}
