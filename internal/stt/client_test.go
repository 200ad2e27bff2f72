package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nhooyr.io/websocket"
)

// sinkServer accepts one websocket connection and discards inbound frames
// until the peer goes away.
func sinkServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCloseWithQueuedPackets(t *testing.T) {
	srv := sinkServer(t)

	c := NewClient(context.Background(), Config{
		APIKey:  "test-key",
		BaseURL: wsURL(srv),
	})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Leave the sender a backlog to drain while teardown runs.
	for i := 0; i < 100; i++ {
		c.SendAudio(make([]byte, 320), 16000)
	}
	c.Commit(16000)
	c.Close()

	// Post-close operations must stay silent no-ops.
	c.SendAudio(make([]byte, 320), 16000)
	c.Commit(16000)
	c.Close()
}

func TestCloseWithoutConnect(t *testing.T) {
	c := NewClient(context.Background(), Config{})
	if c.Enabled() {
		t.Fatal("client without a key should be disabled")
	}
	c.SendAudio(make([]byte, 320), 16000)
	c.Commit(16000)
	c.Close()
}
