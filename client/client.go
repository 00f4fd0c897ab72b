package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	presence "vibecheck/internal/pkg/presence/domain"
)

const (
	DefaultPollInterval      = 4 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

// Config configures a Client. ServerURL is required; everything else has a
// default.
type Config struct {
	ServerURL         string
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// Client is one participant on the board. All cache access is serialized
// through one mutex, so reconciliation steps apply strictly in arrival
// order, the only ordering the design relies on.
type Client struct {
	id  string
	cfg Config

	mu    sync.Mutex
	cache *Cache
	name  string

	ws       *websocket.Conn
	messages chan presence.DirectMessage
	changed  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Client with a fresh session identity. The client is idle
// until Join is called.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, errors.New("client: ServerURL is required")
	}
	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("client: parse ServerURL: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Client{
		id:       newSessionID(),
		cfg:      cfg,
		cache:    NewCache(),
		messages: make(chan presence.DirectMessage, 8),
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the session identity token.
func (c *Client) ID() string { return c.id }

// Join puts the client on the board under the given display name: the local
// cache is updated optimistically, the join upsert is sent, and the poll,
// heartbeat and event-stream loops start. A failed upsert is logged, not
// returned; the next poll or retried action reconciles it.
func (c *Client) Join(ctx context.Context, name string) error {
	user, err := presence.NewUserPresence(c.id, name, nil, time.Now().UnixMilli())
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.name = user.Name
	c.cache.ApplyLocal(*user)
	c.mu.Unlock()
	c.notify()

	if err := c.post(ctx, "/api/users", map[string]any{"id": c.id, "name": user.Name, "vibe": nil}); err != nil {
		c.cfg.Logger.Printf("join post failed: %v", err)
	}

	if err := c.dialEvents(ctx); err != nil {
		// Without the stream the poll still keeps the cache converging;
		// only direct messages are lost.
		c.cfg.Logger.Printf("event stream unavailable: %v", err)
	}

	c.wg.Add(2)
	go c.pollLoop()
	go c.heartbeatLoop()
	return nil
}

// SetVibe moves the local user to a quadrant (nil clears it). The optimistic
// write lands before the round trip; if two changes race, the last local
// write wins on screen and the last upsert to reach the server wins durably.
func (c *Client) SetVibe(ctx context.Context, vibe *presence.Vibe) {
	c.mu.Lock()
	name := c.name
	u := presence.UserPresence{ID: c.id, Name: name, Vibe: vibe, LastSeen: time.Now().UnixMilli()}
	c.cache.ApplyLocal(u)
	c.mu.Unlock()
	c.notify()

	var wire *string
	if vibe != nil {
		s := string(*vibe)
		wire = &s
	}
	if err := c.post(ctx, "/api/users", map[string]any{"id": c.id, "name": name, "vibe": wire}); err != nil {
		c.cfg.Logger.Printf("vibe post failed: %v", err)
	}
}

// SendMessage fires an ephemeral ping at another user. No local state
// changes; delivery is best-effort.
func (c *Client) SendMessage(ctx context.Context, toID, text string) error {
	c.mu.Lock()
	name := c.name
	c.mu.Unlock()

	msg, err := presence.NewDirectMessage(toID, name, text)
	if err != nil {
		return err
	}
	return c.post(ctx, "/api/message", msg)
}

// Remove forcibly logs out any user, own id included. The cache entry is
// dropped optimistically; the user-removed broadcast converges everyone else.
func (c *Client) Remove(ctx context.Context, id string) {
	c.mu.Lock()
	c.cache.Delete(id)
	c.mu.Unlock()
	c.notify()

	if err := c.post(ctx, "/api/leave", map[string]string{"id": id}); err != nil {
		c.cfg.Logger.Printf("leave post failed: %v", err)
	}
}

// Leave removes the local user from the board and stops all loops.
func (c *Client) Leave(ctx context.Context) {
	c.Remove(ctx, c.id)
	c.Close()
}

// Close stops timers and the event stream without announcing a leave.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
	})
	c.wg.Wait()
}

// Users returns a copy of the reconciled board view.
func (c *Client) Users() map[string]presence.UserPresence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Users()
}

// Self returns the local user's reconciled entry.
func (c *Client) Self() (presence.UserPresence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(c.id)
}

// Flashing returns the ids currently carrying the attention marker.
func (c *Client) Flashing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Flashing(time.Now())
}

// Messages delivers direct pings addressed to this client. Pings for other
// ids never appear here. The channel is buffered; pings are dropped when the
// consumer falls behind.
func (c *Client) Messages() <-chan presence.DirectMessage {
	return c.messages
}

// Changed coalesces change notifications: at most one pending signal,
// delivered after any cache mutation.
func (c *Client) Changed() <-chan struct{} {
	return c.changed
}

func (c *Client) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// ===================== network =====================

// post sends a JSON body and reports a non-2xx response as an error. There
// are no retries at any layer: a failed write is invisible until the next
// poll reconciles the optimistic state back to server truth.
func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ServerURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// userRow is the wire shape of one snapshot entry: the id lives in the map
// key, not the row.
type userRow struct {
	Name     string  `json:"name"`
	Vibe     *string `json:"vibe"`
	LastSeen int64   `json:"lastSeen"`
}

func (c *Client) fetchUsers(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ServerURL+"/api/users", nil)
	if err != nil {
		return err
	}
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET /api/users: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var rows map[string]userRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return err
	}

	snapshot := make(map[string]presence.UserPresence, len(rows))
	for id, row := range rows {
		vibe, err := presence.ParseVibe(deref(row.Vibe))
		if err != nil {
			c.cfg.Logger.Printf("dropping snapshot row %s: %v", id, err)
			continue
		}
		snapshot[id] = presence.UserPresence{ID: id, Name: row.Name, Vibe: vibe, LastSeen: row.LastSeen}
	}

	c.mu.Lock()
	c.cache.ApplySnapshot(snapshot, c.id)
	c.mu.Unlock()
	c.notify()
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ===================== loops =====================

func (c *Client) pollLoop() {
	defer c.wg.Done()

	// Immediate first fetch, then the fixed fallback interval.
	if err := c.fetchUsers(context.Background()); err != nil {
		c.cfg.Logger.Printf("fetch users failed: %v", err)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.fetchUsers(context.Background()); err != nil {
				c.cfg.Logger.Printf("fetch users failed: %v", err)
			}
		}
	}
}

func (c *Client) heartbeatLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// A missed heartbeat self-heals on the next tick; worst case
			// the user ages out after the staleness window.
			if err := c.post(context.Background(), "/api/heartbeat", map[string]string{"id": c.id}); err != nil {
				c.cfg.Logger.Printf("heartbeat failed: %v", err)
			}
		}
	}
}

func (c *Client) dialEvents(ctx context.Context) error {
	wsURL, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/events"
	wsURL.RawQuery = url.Values{"id": {c.id}}.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(ws)
	return nil
}

// readLoop consumes the event stream until it drops. There is no reconnect:
// the poll is the designed fallback for transport loss.
func (c *Client) readLoop(ws *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.cfg.Logger.Printf("event stream closed: %v", err)
			}
			return
		}

		ev, err := presence.DecodeEvent(payload)
		if err != nil {
			c.cfg.Logger.Printf("dropping malformed event: %v", err)
			continue
		}

		c.mu.Lock()
		c.cache.ApplyEvent(ev, c.id, time.Now())
		c.mu.Unlock()

		if ev.Name == presence.EventUserMessage && ev.Message.ToID == c.id {
			select {
			case c.messages <- *ev.Message:
			default:
				c.cfg.Logger.Printf("dropping ping from %s: consumer behind", ev.Message.FromName)
			}
		}
		c.notify()
	}
}
