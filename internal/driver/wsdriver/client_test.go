package wsdriver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daksh-r/webdriverio/internal/hub"
	"github.com/daksh-r/webdriverio/internal/protocol"
)

func TestCommandsWithoutSession(t *testing.T) {
	c := NewClient(hub.New(hub.Options{}), Options{})
	if _, err := c.Navigate(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected error when no session is active")
	}
	if _, err := c.CurrentContext(context.Background()); err == nil {
		t.Fatalf("expected error when no session is active")
	}
}

func TestSwitchToWindowTracksContext(t *testing.T) {
	h := hub.New(hub.Options{CheckOrigin: func(*http.Request) bool { return true }})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	hello := protocol.Hello{SessionID: "agent-1", Capabilities: protocol.Capabilities{Contexts: true}}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("agent never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Agent side: acknowledge every request with an empty ok response.
	go func() {
		for {
			var req protocol.Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			_ = conn.WriteJSON(protocol.Response{ID: req.ID, OK: true})
		}
	}()

	c := NewClient(h, Options{Timeout: 2 * time.Second})
	if err := c.SwitchToWindow(context.Background(), "h1"); err != nil {
		t.Fatalf("switch window: %v", err)
	}

	// The tracker observed the command event inline; no fetch is needed.
	got, err := c.CurrentContext(context.Background())
	if err != nil {
		t.Fatalf("current context: %v", err)
	}
	if got != "h1" {
		t.Fatalf("expected tracked context h1, got %q", got)
	}
}
