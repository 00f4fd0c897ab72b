// Package client embeds a mood-board participant: it keeps a reconciled view
// of everyone on the board by merging snapshot polls with streamed events,
// applies local changes optimistically, and heartbeats while joined.
package client

import (
	"time"

	presence "vibecheck/internal/pkg/presence/domain"
)

// FlashDuration is how long the attention marker on a remotely-updated user
// lasts.
const FlashDuration = 900 * time.Millisecond

// Cache is the reconciled id -> presence view. It merges two racing sources:
// the full snapshot poll and the incremental event stream. No ordering holds
// between them; the snapshot rule below is the sole mechanism keeping the
// local user's optimistic state from visibly reverting.
//
// Cache is not safe for concurrent use; Client serializes all access.
type Cache struct {
	users map[string]presence.UserPresence
	flash map[string]time.Time // id -> marker expiry
}

func NewCache() *Cache {
	return &Cache{
		users: make(map[string]presence.UserPresence),
		flash: make(map[string]time.Time),
	}
}

// ApplySnapshot replaces the view wholesale with the polled snapshot, except:
// when selfID is present locally but missing from the snapshot, the local
// entry is retained. That window is the server not having caught up with our
// own just-submitted write; dropping the entry would make our own vibe
// flicker back for one poll cycle. Aged-out remote users disappear here,
// since passive expiry never produces a user-removed event.
func (c *Cache) ApplySnapshot(snapshot map[string]presence.UserPresence, selfID string) {
	next := make(map[string]presence.UserPresence, len(snapshot)+1)
	for id, u := range snapshot {
		u.ID = id
		next[id] = u
	}
	if self, ok := c.users[selfID]; ok {
		if _, inSnapshot := snapshot[selfID]; !inSnapshot {
			next[selfID] = self
		}
	}
	c.users = next
}

// ApplyEvent folds one streamed event into the view. Updates overwrite
// unconditionally: last event to arrive wins, with no timestamp comparison.
// A remote update also arms the flash marker; that is a side annotation only
// and never feeds back into reconciliation.
func (c *Cache) ApplyEvent(ev presence.Event, selfID string, now time.Time) {
	switch ev.Name {
	case presence.EventUserUpdated:
		u := *ev.Updated
		c.users[u.ID] = u
		if u.ID != selfID {
			c.flash[u.ID] = now.Add(FlashDuration)
		}
	case presence.EventUserRemoved:
		delete(c.users, ev.Removed.ID)
		delete(c.flash, ev.Removed.ID)
	}
	// user-message events carry no presence state.
}

// ApplyLocal records an optimistic write before the server round trip
// completes, so the change is visible with zero perceived latency. The
// corresponding user-updated event later overwrites it harmlessly.
func (c *Cache) ApplyLocal(u presence.UserPresence) {
	c.users[u.ID] = u
}

// Delete drops an entry optimistically (local leave / force logout).
func (c *Cache) Delete(id string) {
	delete(c.users, id)
	delete(c.flash, id)
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (presence.UserPresence, bool) {
	u, ok := c.users[id]
	return u, ok
}

// Users returns a copy of the reconciled view.
func (c *Cache) Users() map[string]presence.UserPresence {
	out := make(map[string]presence.UserPresence, len(c.users))
	for id, u := range c.users {
		out[id] = u
	}
	return out
}

// Flashing prunes expired markers and returns the ids still flashing at now.
func (c *Cache) Flashing(now time.Time) []string {
	var ids []string
	for id, expiry := range c.flash {
		if now.After(expiry) {
			delete(c.flash, id)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
