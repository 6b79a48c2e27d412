package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

func TestNoActiveSession(t *testing.T) {
	h := New(Options{})
	if _, err := h.Active(); err != ErrNoActiveSession {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := h.Session("missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := h.Disconnect(""); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on empty hub, got %v", err)
	}
}

func TestAgentRoundTrip(t *testing.T) {
	h := New(Options{CheckOrigin: func(*http.Request) bool { return true }})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.Hello{
		SessionID:   "agent-1",
		Platform:    "linux",
		BrowserName: "chromium",
		Capabilities: protocol.Capabilities{Contexts: true},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	waitFor(t, func() bool { return h.Count() == 1 })

	// Agent side: answer the one request we expect.
	go func() {
		var req protocol.Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteJSON(protocol.Response{ID: req.ID, OK: true, Value: json.RawMessage(`"https://example.com"`)})
	}()

	sess, err := h.Session("agent-1")
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := sess.Execute(ctx, protocol.Request{Command: protocol.CommandGetURL})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok response, got %+v", resp)
	}
	url, err := protocol.StringValue(resp)
	if err != nil || url != "https://example.com" {
		t.Fatalf("unexpected value %q (err %v)", url, err)
	}

	infos := h.ListSessions()
	if len(infos) != 1 || !infos[0].Active || !infos[0].Contexts {
		t.Fatalf("unexpected session info: %+v", infos)
	}
}

func TestExecuteCancellation(t *testing.T) {
	h := New(Options{CheckOrigin: func(*http.Request) bool { return true }})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(protocol.Hello{SessionID: "agent-2"}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	waitFor(t, func() bool { return h.Count() == 1 })

	sess, err := h.Session("agent-2")
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// The agent never answers; the context deadline must unblock Execute.
	if _, err := sess.Execute(ctx, protocol.Request{Command: protocol.CommandGetTitle}); err == nil {
		t.Fatalf("expected context error from unanswered request")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}
