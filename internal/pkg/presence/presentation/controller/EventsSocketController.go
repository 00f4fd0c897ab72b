package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"vibecheck/internal/infrastructure/realtime"
)

// EventsSocketController handles the websocket endpoint delivering broadcast
// events to clients. Traffic is one-way: clients only read; mutations go
// through the HTTP endpoints.
type EventsSocketController struct {
	hub *realtime.Hub
}

func NewEventsSocketController(hub *realtime.Hub) *EventsSocketController {
	return &EventsSocketController{hub: hub}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Identity is a self-assigned token; there is nothing to protect
		// with an origin check.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades the connection, attaches it to the hub and blocks reading
// control frames until the client disconnects.
func (ctl *EventsSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.Query("id")
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(clientID, ws)
		ctl.hub.Attach(conn)
		defer func() {
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(4 << 10)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		// The read loop only exists to process pongs and notice disconnects;
		// inbound data frames are discarded.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}
}
