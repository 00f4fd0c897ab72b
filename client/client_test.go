package client

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vibecheck/internal/infrastructure/realtime"
	presence "vibecheck/internal/pkg/presence/domain"
)

func TestNewSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newSessionID()
		if len(id) != 8 {
			t.Fatalf("id %q has length %d", id, len(id))
		}
		for _, r := range id {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
				t.Fatalf("id %q contains %q", id, r)
			}
		}
		seen[id] = true
	}
	if len(seen) < 99 {
		t.Fatalf("only %d distinct ids out of 100", len(seen))
	}
}

// fakeServer records posted bodies and serves a canned snapshot. It has no
// websocket endpoint, so clients run on the poll fallback alone.
type fakeServer struct {
	mu       sync.Mutex
	posts    map[string][]map[string]any
	snapshot map[string]any
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{
		posts:    make(map[string][]map[string]any),
		snapshot: make(map[string]any),
	}
	srv := httptest.NewServer(http.HandlerFunc(fs.serveHTTP))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet && r.URL.Path == "/api/users" {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(fs.snapshot)
		return
	}
	body, _ := io.ReadAll(r.Body)
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	fs.mu.Lock()
	fs.posts[r.URL.Path] = append(fs.posts[r.URL.Path], decoded)
	fs.mu.Unlock()
	_, _ = w.Write([]byte(`{"ok":true}`))
}

var eventUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newFakeEventServer additionally serves /api/events by attaching upgraded
// sockets to a real hub, so broadcasting through the hub drives connected
// clients' event streams end to end.
func newFakeEventServer(t *testing.T) (*fakeServer, *httptest.Server, *realtime.Hub) {
	t.Helper()
	fs := &fakeServer{
		posts:    make(map[string][]map[string]any),
		snapshot: make(map[string]any),
	}
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/events" {
			ws, err := eventUpgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			conn := realtime.NewConnection(r.URL.Query().Get("id"), ws)
			hub.Attach(conn)
			defer hub.Detach(conn)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}
		fs.serveHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return fs, srv, hub
}

func (fs *fakeServer) postCount(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.posts[path])
}

func (fs *fakeServer) lastPost(t *testing.T, path string) map[string]any {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	posts := fs.posts[path]
	if len(posts) == 0 {
		t.Fatalf("no posts to %s", path)
	}
	return posts[len(posts)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		ServerURL:    srv.URL,
		PollInterval: 20 * time.Millisecond,
		Logger:       log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// newEventTestClient keeps the poll far away so the tests observe what the
// event stream alone does to the cache.
func newEventTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		ServerURL:    srv.URL,
		PollInterval: time.Hour,
		Logger:       log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func encodeEvent(t *testing.T, ev presence.Event) []byte {
	t.Helper()
	payload, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	return payload
}

func TestJoinIsOptimisticAndPosts(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)

	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// The local entry is visible immediately, before any server round trip
	// settles.
	self, ok := c.Self()
	if !ok || self.Name != "Al" || self.Vibe != nil {
		t.Fatalf("optimistic self = %+v, ok=%v", self, ok)
	}

	waitFor(t, func() bool { return fs.postCount("/api/users") >= 1 })
	post := fs.lastPost(t, "/api/users")
	if post["id"] != c.ID() || post["name"] != "Al" || post["vibe"] != nil {
		t.Fatalf("join post = %v", post)
	}
}

func TestPollPreservesSelfAgainstEmptySnapshot(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)

	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// The fake server never includes us in its snapshot; several poll
	// cycles must not evict the optimistic local entry.
	waitFor(t, func() bool { return fs.postCount("/api/users") >= 1 })
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Self(); !ok {
		t.Fatal("poll against empty snapshot evicted the local user")
	}
}

func TestPollReconcilesRemoteUsers(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)

	fs.mu.Lock()
	fs.snapshot["bo"] = map[string]any{"name": "Bo", "vibe": "high-unpleasant", "lastSeen": 123}
	fs.mu.Unlock()

	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	waitFor(t, func() bool {
		_, ok := c.Users()["bo"]
		return ok
	})
	bo := c.Users()["bo"]
	if bo.Name != "Bo" || bo.Vibe == nil || *bo.Vibe != presence.VibeHighUnpleasant || bo.LastSeen != 123 {
		t.Fatalf("bo = %+v", bo)
	}
}

func TestSetVibePostsAndAppliesLocally(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)
	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	v := presence.VibeLowPleasant
	c.SetVibe(context.Background(), &v)

	self, _ := c.Self()
	if self.Vibe == nil || *self.Vibe != presence.VibeLowPleasant {
		t.Fatalf("vibe not applied locally: %+v", self)
	}

	waitFor(t, func() bool { return fs.postCount("/api/users") >= 2 })
	post := fs.lastPost(t, "/api/users")
	if post["vibe"] != "low-pleasant" {
		t.Fatalf("vibe post = %v", post)
	}
}

func TestLeavePostsAndStops(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)
	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	c.Leave(context.Background())

	post := fs.lastPost(t, "/api/leave")
	if post["id"] != c.ID() {
		t.Fatalf("leave post = %v", post)
	}
	if _, ok := c.Self(); ok {
		t.Fatal("self survived leave")
	}
}

func TestSendMessageValidatesBeforePosting(t *testing.T) {
	fs, srv := newFakeServer(t)
	c := newTestClient(t, srv)
	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := c.SendMessage(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if fs.postCount("/api/message") != 0 {
		t.Fatal("invalid message reached the wire")
	}

	if err := c.SendMessage(context.Background(), "bo", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	post := fs.lastPost(t, "/api/message")
	if post["toId"] != "bo" || post["fromName"] != "Al" || post["text"] != "hi" {
		t.Fatalf("message post = %v", post)
	}
}

func TestEventStreamRoutesAddressedMessages(t *testing.T) {
	_, srv, hub := newFakeEventServer(t)

	b := newEventTestClient(t, srv)
	c := newEventTestClient(t, srv)
	if err := b.Join(context.Background(), "Bo"); err != nil {
		t.Fatalf("join b: %v", err)
	}
	if err := c.Join(context.Background(), "Cy"); err != nil {
		t.Fatalf("join c: %v", err)
	}
	waitFor(t, func() bool { return hub.Len() == 2 })

	ev := presence.NewUserMessageEvent(presence.DirectMessage{ToID: b.ID(), FromName: "Al", Text: "hey"})
	if delivered := hub.Broadcast(encodeEvent(t, ev)); delivered != 2 {
		t.Fatalf("delivered to %d sessions, want 2", delivered)
	}

	select {
	case msg := <-b.Messages():
		if msg.ToID != b.ID() || msg.FromName != "Al" || msg.Text != "hey" {
			t.Fatalf("message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("addressed client never surfaced the message")
	}

	// The other subscriber received the same frame but must not surface it.
	time.Sleep(100 * time.Millisecond)
	select {
	case msg := <-c.Messages():
		t.Fatalf("unaddressed client surfaced %+v", msg)
	default:
	}
}

func TestEventStreamAppliesUpdatesAndRemovals(t *testing.T) {
	_, srv, hub := newFakeEventServer(t)

	c := newEventTestClient(t, srv)
	if err := c.Join(context.Background(), "Al"); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitFor(t, func() bool { return hub.Len() == 1 })

	v := presence.VibeHighPleasant
	upd := presence.NewUserUpdatedEvent(presence.UserPresence{ID: "zed", Name: "Zed", Vibe: &v, LastSeen: 456})
	if delivered := hub.Broadcast(encodeEvent(t, upd)); delivered != 1 {
		t.Fatalf("delivered to %d sessions, want 1", delivered)
	}

	waitFor(t, func() bool {
		_, ok := c.Users()["zed"]
		return ok
	})
	zed := c.Users()["zed"]
	if zed.Name != "Zed" || zed.Vibe == nil || *zed.Vibe != presence.VibeHighPleasant || zed.LastSeen != 456 {
		t.Fatalf("zed = %+v", zed)
	}

	// Only event application arms the attention marker; snapshots never do.
	flashed := false
	for _, id := range c.Flashing() {
		if id == "zed" {
			flashed = true
		}
	}
	if !flashed {
		t.Fatal("update for another user did not arm the attention marker")
	}

	if delivered := hub.Broadcast(encodeEvent(t, presence.NewUserRemovedEvent("zed"))); delivered != 1 {
		t.Fatalf("delivered to %d sessions, want 1", delivered)
	}
	waitFor(t, func() bool {
		_, ok := c.Users()["zed"]
		return !ok
	})
}
