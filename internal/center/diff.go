package center

import (
	"sort"
	"strings"
)

// membershipKey reduces a post-notification list to its id set: sorted,
// comma-joined. Two lists with the same key hold the same items,
// regardless of order or attribute state.
func membershipKey(items []*PostNotificationView) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// mergePosts folds an incoming snapshot into the currently held list.
//
// Membership changed (an item added or removed): the incoming list wins
// wholesale: new ordering, new objects. Membership identical (only
// attributes moved, e.g. a read flag): the current list keeps its object
// identity and ordering and only the Read field is copied over from the
// matching incoming item. A pure attribute change must never reorder
// the list; a membership change must never patch in place.
func mergePosts(current, incoming []*PostNotificationView) []*PostNotificationView {
	if membershipKey(current) != membershipKey(incoming) {
		return incoming
	}

	fresh := make(map[string]*PostNotificationView, len(incoming))
	for _, item := range incoming {
		fresh[item.ID] = item
	}
	for _, item := range current {
		if updated, ok := fresh[item.ID]; ok {
			item.Read = updated.Read
		}
	}
	return current
}
