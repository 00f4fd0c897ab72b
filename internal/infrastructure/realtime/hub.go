package realtime

import (
	"sync"
)

// Hub tracks every websocket session on the shared presence topic. There are
// no rooms: each broadcast frame goes to every attached connection, and any
// per-client filtering (direct messages) happens client-side.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Connection // sessionID -> connection
	byClient map[string]string      // clientID -> sessionID
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Connection),
		byClient: make(map[string]string),
	}
}

// Attach registers a connection for the given client id. If a previous
// session exists for the same id, it is removed and closed after the swap to
// enforce one active socket per client.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.byClient[conn.ClientID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			h.detachLocked(existingID)
		}
	}
	h.sessions[conn.ID] = conn
	h.byClient[conn.ClientID] = conn.ID
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// Broadcast writes payload to every attached connection and reports how many
// sends were accepted.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	delivered := 0
	for _, conn := range h.sessions {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()
	return delivered
}

// Len reports the number of attached sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.byClient = make(map[string]string)
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	if current, ok := h.byClient[conn.ClientID]; ok && current == sessionID {
		delete(h.byClient, conn.ClientID)
	}
}
