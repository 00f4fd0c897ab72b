package client

import (
	"testing"
	"time"

	presence "vibecheck/internal/pkg/presence/domain"
)

func vibe(v presence.Vibe) *presence.Vibe { return &v }

func TestSnapshotPreservesLocalUser(t *testing.T) {
	c := NewCache()

	// Our own optimistic write is in the cache but the server snapshot has
	// not caught up with it yet.
	c.ApplyLocal(presence.UserPresence{ID: "me", Name: "Me", Vibe: vibe(presence.VibeHighPleasant), LastSeen: 100})

	c.ApplySnapshot(map[string]presence.UserPresence{
		"other": {Name: "Other", LastSeen: 50},
	}, "me")

	users := c.Users()
	me, ok := users["me"]
	if !ok {
		t.Fatal("local entry dropped by snapshot")
	}
	if me.Vibe == nil || *me.Vibe != presence.VibeHighPleasant {
		t.Fatalf("local vibe reverted: %v", me.Vibe)
	}
	if _, ok := users["other"]; !ok {
		t.Fatal("snapshot row missing")
	}
}

func TestSnapshotReplacesEverythingElse(t *testing.T) {
	c := NewCache()
	c.ApplyLocal(presence.UserPresence{ID: "me", Name: "Me", LastSeen: 1})
	c.ApplyLocal(presence.UserPresence{ID: "gone", Name: "Gone", LastSeen: 1})
	c.ApplyLocal(presence.UserPresence{ID: "kept", Name: "Old name", LastSeen: 1})

	c.ApplySnapshot(map[string]presence.UserPresence{
		"kept": {Name: "New name", LastSeen: 2},
	}, "me")

	users := c.Users()
	if _, ok := users["gone"]; ok {
		t.Fatal("aged-out remote user survived snapshot replacement")
	}
	if users["kept"].Name != "New name" {
		t.Fatalf("snapshot did not overwrite remote entry: %+v", users["kept"])
	}
	if _, ok := users["me"]; !ok {
		t.Fatal("local entry dropped")
	}
}

func TestSnapshotServerWinsWhenLocalUserPresent(t *testing.T) {
	c := NewCache()
	c.ApplyLocal(presence.UserPresence{ID: "me", Name: "Me", Vibe: vibe(presence.VibeLowPleasant), LastSeen: 100})

	// Once the snapshot carries our id the server row wins, optimistic
	// state included.
	c.ApplySnapshot(map[string]presence.UserPresence{
		"me": {Name: "Me", Vibe: nil, LastSeen: 200},
	}, "me")

	me, _ := c.Get("me")
	if me.Vibe != nil {
		t.Fatalf("server row did not win: %v", *me.Vibe)
	}
}

func TestEventThenSnapshotOrdering(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.ApplyLocal(presence.UserPresence{ID: "me", Name: "Me", Vibe: vibe(presence.VibeLowUnpleasant), LastSeen: 1})

	// Event arrives first: a joins with no vibe yet.
	c.ApplyEvent(presence.NewUserUpdatedEvent(presence.UserPresence{ID: "a", Name: "Al", LastSeen: 10}), "me", now)
	if a, ok := c.Get("a"); !ok || a.Vibe != nil {
		t.Fatalf("event not applied: %+v", a)
	}

	// Snapshot arrives later carrying a's newer vibe and missing "me".
	c.ApplySnapshot(map[string]presence.UserPresence{
		"a": {Name: "Al", Vibe: vibe(presence.VibeHighPleasant), LastSeen: 20},
	}, "me")

	a, _ := c.Get("a")
	if a.Vibe == nil || *a.Vibe != presence.VibeHighPleasant {
		t.Fatalf("snapshot did not update a: %+v", a)
	}
	me, ok := c.Get("me")
	if !ok {
		t.Fatal("me dropped")
	}
	if me.Vibe == nil || *me.Vibe != presence.VibeLowUnpleasant {
		t.Fatalf("me's prior value lost: %+v", me)
	}
}

func TestUpdateEventsOverwriteByArrivalOrder(t *testing.T) {
	now := time.Now()
	c := NewCache()

	c.ApplyEvent(presence.NewUserUpdatedEvent(presence.UserPresence{ID: "a", Name: "Al", Vibe: vibe(presence.VibeHighPleasant), LastSeen: 20}), "me", now)
	// Older timestamp, but later arrival: it still wins. No timestamp
	// comparison anywhere.
	c.ApplyEvent(presence.NewUserUpdatedEvent(presence.UserPresence{ID: "a", Name: "Al", Vibe: vibe(presence.VibeLowPleasant), LastSeen: 10}), "me", now)

	a, _ := c.Get("a")
	if a.Vibe == nil || *a.Vibe != presence.VibeLowPleasant {
		t.Fatalf("last arrival did not win: %+v", a)
	}
}

func TestRemovedEventDeletesUnconditionally(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.ApplyLocal(presence.UserPresence{ID: "a", Name: "Al", LastSeen: 1})

	c.ApplyEvent(presence.NewUserRemovedEvent("a"), "me", now)
	if _, ok := c.Get("a"); ok {
		t.Fatal("removed user survived")
	}

	// Removing an id that is not cached is a no-op, not a failure.
	c.ApplyEvent(presence.NewUserRemovedEvent("ghost"), "me", now)
}

func TestMessageEventDoesNotTouchPresence(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.ApplyLocal(presence.UserPresence{ID: "a", Name: "Al", LastSeen: 1})

	c.ApplyEvent(presence.NewUserMessageEvent(presence.DirectMessage{ToID: "a", FromName: "Bo", Text: "hi"}), "me", now)

	if len(c.Users()) != 1 {
		t.Fatalf("message event changed presence state: %v", c.Users())
	}
	if ids := c.Flashing(now); len(ids) != 0 {
		t.Fatalf("message event armed flash: %v", ids)
	}
}

func TestFlashMarkers(t *testing.T) {
	now := time.Now()
	c := NewCache()

	c.ApplyEvent(presence.NewUserUpdatedEvent(presence.UserPresence{ID: "a", Name: "Al", LastSeen: 1}), "me", now)
	c.ApplyEvent(presence.NewUserUpdatedEvent(presence.UserPresence{ID: "me", Name: "Me", LastSeen: 1}), "me", now)

	ids := c.Flashing(now)
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("flashing = %v, want [a]", ids)
	}

	// Markers expire after FlashDuration and are pruned on read.
	if ids := c.Flashing(now.Add(FlashDuration + time.Millisecond)); len(ids) != 0 {
		t.Fatalf("flash still armed: %v", ids)
	}
}
