package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

func TestExecuteEmitsEventsInline(t *testing.T) {
	s := New("s1", protocol.Hello{Capabilities: protocol.Capabilities{Contexts: true}})
	s.SetExec(func(_ context.Context, req protocol.Request) (protocol.Response, error) {
		return protocol.Response{ID: req.ID, OK: true, Value: json.RawMessage(`"h1"`)}, nil
	})

	var order []string
	s.OnCommand(func(ev protocol.CommandEvent) {
		order = append(order, "command:"+string(ev.Command))
	})
	s.OnResult(func(ev protocol.ResultEvent) {
		order = append(order, "result:"+ev.Value)
	})

	resp, err := s.Execute(context.Background(), protocol.Request{Command: protocol.CommandGetWindowHandle})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok response")
	}
	if len(order) != 2 || order[0] != "command:getWindowHandle" || order[1] != "result:h1" {
		t.Fatalf("events not emitted inline: %v", order)
	}
}

func TestExecuteWithoutExecutor(t *testing.T) {
	s := New("s1", protocol.Hello{})
	if _, err := s.Execute(context.Background(), protocol.Request{Command: protocol.CommandRefresh}); err != ErrNoExecutor {
		t.Fatalf("expected ErrNoExecutor, got %v", err)
	}
}

func TestWindowHandle(t *testing.T) {
	s := New("s1", protocol.Hello{})
	s.SetExec(func(_ context.Context, req protocol.Request) (protocol.Response, error) {
		if req.Command != protocol.CommandGetWindowHandle {
			t.Fatalf("unexpected command %q", req.Command)
		}
		return protocol.Response{ID: req.ID, OK: true, Value: json.RawMessage(`"w-77"`)}, nil
	})
	handle, err := s.WindowHandle(context.Background())
	if err != nil {
		t.Fatalf("window handle: %v", err)
	}
	if handle != "w-77" {
		t.Fatalf("expected w-77, got %q", handle)
	}
}

func TestNativeContextStartsFromHello(t *testing.T) {
	s := New("s1", protocol.Hello{Capabilities: protocol.Capabilities{Mobile: true, NativeApp: true}})
	if !s.InNativeContext() {
		t.Fatalf("expected native context from hello")
	}
	s.SetNativeContext(false)
	if s.InNativeContext() {
		t.Fatalf("expected native flag to clear")
	}
}
