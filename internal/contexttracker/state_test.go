package contexttracker

import (
	"testing"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

func TestApplyCommandTransitions(t *testing.T) {
	cases := []struct {
		name string
		in   State
		ev   protocol.CommandEvent
		want State
		flag bool
	}{
		{
			name: "switch window stores handle",
			ev:   protocol.CommandEvent{Command: protocol.CommandSwitchToWindow, Handle: "h1"},
			want: State{Current: "h1"},
			flag: true,
		},
		{
			name: "parent frame clears without handle",
			in:   State{Current: "h1"},
			ev:   protocol.CommandEvent{Command: protocol.CommandSwitchToParentFrame},
			want: State{},
		},
		{
			name: "refresh clears without handle",
			in:   State{Current: "ctx-1"},
			ev:   protocol.CommandEvent{Command: protocol.CommandRefresh},
			want: State{},
		},
		{
			name: "switch context remembers name only",
			in:   State{Current: "h1"},
			ev:   protocol.CommandEvent{Command: protocol.CommandSwitchContext, Name: "WEBVIEW_2"},
			want: State{Current: "h1", Mobile: "WEBVIEW_2"},
		},
		{
			name: "unrelated command is a no-op",
			in:   State{Current: "h1"},
			ev:   protocol.CommandEvent{Command: protocol.CommandNavigate},
			want: State{Current: "h1"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, flag := applyCommand(tc.in, tc.ev)
			if got != tc.want {
				t.Fatalf("state: got %#v, want %#v", got, tc.want)
			}
			if flag != tc.flag {
				t.Fatalf("flag sync: got %v, want %v", flag, tc.flag)
			}
		})
	}
}

func TestApplyResultTransitions(t *testing.T) {
	s, flag := applyResult(State{}, protocol.ResultEvent{Command: protocol.CommandGetContext, Value: "ctx-9"})
	if s.Current != "ctx-9" || !flag {
		t.Fatalf("getContext result should adopt value: %#v flag=%v", s, flag)
	}

	s, flag = applyResult(State{Mobile: "WEBVIEW_1"}, protocol.ResultEvent{Command: protocol.CommandSwitchContext, Null: true})
	if s.Current != "WEBVIEW_1" || !flag {
		t.Fatalf("null switch result should fall back to mobile context: %#v", s)
	}

	s, _ = applyResult(State{Mobile: "WEBVIEW_1"}, protocol.ResultEvent{Command: protocol.CommandSwitchContext, Value: "WEBVIEW_2"})
	if s.Current != "" {
		t.Fatalf("non-null switch result never writes through the fallback: %#v", s)
	}

	s, _ = applyResult(State{Current: "h1"}, protocol.ResultEvent{Command: protocol.CommandGetWindowHandle, Value: "h2"})
	if s.Current != "h1" {
		t.Fatalf("unrelated results must not change state: %#v", s)
	}
}
