package center

import (
	"fmt"
	"sort"
)

// SetSelectionMode toggles selection mode over the post-activity list.
// Any existing selection is cleared on every toggle, in both directions.
// Setting the mode it is already in, with nothing selected, changes
// nothing and emits nothing.
func (c *Center) SetSelectionMode(enabled bool) {
	c.mu.Lock()
	if enabled == c.selectionMode && len(c.selected) == 0 {
		c.mu.Unlock()
		return
	}
	c.selectionMode = enabled
	c.selected = make(map[string]struct{})
	seq, view := c.commitLocked()
	c.mu.Unlock()
	c.emit(seq, view)
}

// SelectionMode reports whether selection mode is active.
func (c *Center) SelectionMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionMode
}

// ToggleSelected flips membership of a visible post notification in the
// selection set. Toggling is idempotent in the set sense: selecting a
// selected id deselects it and vice versa. Ignored outside selection
// mode or for ids not currently in the list.
func (c *Center) ToggleSelected(notificationID string) {
	c.mu.Lock()
	if !c.selectionMode || c.findPostLocked(notificationID) == nil {
		c.mu.Unlock()
		return
	}
	if _, ok := c.selected[notificationID]; ok {
		delete(c.selected, notificationID)
	} else {
		c.selected[notificationID] = struct{}{}
	}
	seq, view := c.commitLocked()
	c.mu.Unlock()
	c.emit(seq, view)
}

// SelectedIDs returns the current selection, sorted for determinism.
func (c *Center) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIDsLocked()
}

func (c *Center) selectedIDsLocked() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeleteSelected deletes every selected post notification in one batch.
// Preconditions (no-op): not started, a batch already in flight, empty
// selection. On failure the selection and selection mode are left
// untouched so the user can retry without re-selecting.
func (c *Center) DeleteSelected() error {
	c.mu.Lock()
	if !c.started || c.clearing || len(c.selected) == 0 {
		c.mu.Unlock()
		return nil
	}
	ids := c.selectedIDsLocked()
	c.mu.Unlock()

	return c.deleteBatch(ids)
}

// ClearAll deletes every currently visible post notification. It is the
// same batch operation as DeleteSelected, parameterized with the full
// visible id set, and works regardless of selection mode.
func (c *Center) ClearAll() error {
	c.mu.Lock()
	if !c.started || c.clearing || len(c.posts) == 0 {
		c.mu.Unlock()
		return nil
	}
	ids := make([]string, 0, len(c.posts))
	for _, p := range c.posts {
		ids = append(ids, p.ID)
	}
	c.mu.Unlock()

	return c.deleteBatch(ids)
}

func (c *Center) deleteBatch(ids []string) error {
	c.mu.Lock()
	if c.clearing {
		c.mu.Unlock()
		return nil
	}
	c.clearing = true
	ctx := c.ctx
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.clearing = false
		c.mu.Unlock()
	}()

	if err := c.backend.DeleteNotifications(ctx, c.ownerID, ids); err != nil {
		c.logger.Error().Err(err).Int("count", len(ids)).Msg("batch delete failed")
		c.notice("Could not delete notifications. Please try again.")
		return fmt.Errorf("deleting %d notifications: %w", len(ids), err)
	}

	// The rows are gone server-side; the list itself shrinks with the
	// next snapshot. Selection state resets now.
	c.mu.Lock()
	c.selectionMode = false
	c.selected = make(map[string]struct{})
	seq, view := c.commitLocked()
	c.mu.Unlock()
	c.emit(seq, view)
	return nil
}
