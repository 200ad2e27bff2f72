package clientws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/FELMONON/ai-speech-coach/internal/config"
	"github.com/FELMONON/ai-speech-coach/internal/history"
	"github.com/FELMONON/ai-speech-coach/internal/session"
)

func readJSON(t *testing.T, ctx context.Context, c *ws.Conn) map[string]any {
	t.Helper()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return m
}

func TestSessionWebSocketLifecycle(t *testing.T) {
	reg := session.NewRegistry()
	s := NewServer(config.Config{}, reg, history.Noop{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/session/{session_id}", s.HandleSessionWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session/abc123"
	c, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close(ws.StatusNormalClosure, "")

	// No STT key configured: connected status, then the one-time notice.
	if m := readJSON(t, ctx, c); m["state"] != "connected" {
		t.Fatalf("first message = %v, want connected status", m)
	}
	if m := readJSON(t, ctx, c); m["type"] != "error" {
		t.Fatalf("second message = %v, want not-configured error", m)
	}

	start, _ := json.Marshal(map[string]any{"type": "start_session", "exercise_type": "free_talk"})
	if err := c.Write(ctx, ws.MessageText, start); err != nil {
		t.Fatalf("write start_session: %v", err)
	}
	if m := readJSON(t, ctx, c); m["state"] != "session_started" {
		t.Fatalf("start ack = %v", m)
	}

	end, _ := json.Marshal(map[string]any{"type": "end_session"})
	if err := c.Write(ctx, ws.MessageText, end); err != nil {
		t.Fatalf("write end_session: %v", err)
	}
	m := readJSON(t, ctx, c)
	if m["type"] != "session_summary" {
		t.Fatalf("final message = %v, want session_summary", m)
	}
	body, ok := m["summary"].(map[string]any)
	if !ok || body["session_id"] != "abc123" {
		t.Fatalf("summary payload = %v", m["summary"])
	}
}
