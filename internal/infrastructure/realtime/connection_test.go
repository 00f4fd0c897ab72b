package realtime

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// newConnServer upgrades one socket, starts its write loop and hands the
// Connection to the test.
func newConnServer(t *testing.T) (*httptest.Server, chan *Connection) {
	t.Helper()
	conns := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(r.URL.Query().Get("id"), ws)
		conn.Start()
		conns <- conn
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func TestConnectionSendDuringCloseDoesNotPanic(t *testing.T) {
	srv, conns := newConnServer(t)
	_ = dial(t, srv, "racer")
	conn := <-conns

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = conn.Send([]byte("x"))
		}
	}()
	go func() {
		defer wg.Done()
		conn.Close(websocket.CloseNormalClosure, "bye")
	}()
	wg.Wait()

	// Nothing drains the buffer after close, so sends must start failing
	// within one buffer's worth instead of blocking or panicking.
	failed := false
	for i := 0; i < 256; i++ {
		if conn.Send([]byte("x")) != nil {
			failed = true
			break
		}
	}
	if !failed {
		t.Fatal("sends kept succeeding after close")
	}
}
