package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	params, err := json.Marshal(SwitchWindowParams{Handle: "h1"})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{ID: "1", Command: CommandSwitchToWindow, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	var got Request
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if !reflect.DeepEqual(req, got) {
		t.Fatalf("round trip mismatch: %#v != %#v", req, got)
	}
}

func TestDecodeCommandEvent(t *testing.T) {
	params, _ := json.Marshal(SwitchWindowParams{Handle: "h1"})
	ev := DecodeCommandEvent(Request{Command: CommandSwitchToWindow, Params: params})
	if ev.Command != CommandSwitchToWindow || ev.Handle != "h1" {
		t.Fatalf("unexpected event: %#v", ev)
	}

	params, _ = json.Marshal(SwitchContextParams{Name: "WEBVIEW_1"})
	ev = DecodeCommandEvent(Request{Command: CommandSwitchContext, Params: params})
	if ev.Name != "WEBVIEW_1" {
		t.Fatalf("expected context name, got %#v", ev)
	}
}

func TestDecodeCommandEventToleratesBadParams(t *testing.T) {
	ev := DecodeCommandEvent(Request{Command: CommandRefresh, Params: json.RawMessage(`{broken`)})
	if ev.Handle != "" || ev.Name != "" {
		t.Fatalf("expected zero fields, got %#v", ev)
	}
	ev = DecodeCommandEvent(Request{Command: CommandSwitchToParentFrame})
	if ev.Handle != "" {
		t.Fatalf("expected empty handle, got %q", ev.Handle)
	}
}

func TestDecodeResultEvent(t *testing.T) {
	ev := DecodeResultEvent(CommandGetContext, Response{OK: true, Value: json.RawMessage(`"ctx-42"`)})
	if ev.Null || ev.Value != "ctx-42" {
		t.Fatalf("unexpected event: %#v", ev)
	}

	ev = DecodeResultEvent(CommandSwitchContext, Response{OK: true, Value: json.RawMessage(`null`)})
	if !ev.Null {
		t.Fatalf("expected null result, got %#v", ev)
	}

	ev = DecodeResultEvent(CommandSwitchContext, Response{OK: true})
	if !ev.Null {
		t.Fatalf("expected absent value to decode as null, got %#v", ev)
	}

	ev = DecodeResultEvent(CommandSwitchContext, Response{OK: true, Value: json.RawMessage(`""`)})
	if ev.Null {
		t.Fatalf("empty string should not decode as null")
	}
}
