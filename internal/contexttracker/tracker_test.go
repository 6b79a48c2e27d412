package contexttracker

import (
	"context"
	"errors"
	"testing"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

type fakeSession struct {
	contexts bool
	mobile   bool
	native   bool

	handle    string
	handleErr error
	fetches   int

	commandFns []func(protocol.CommandEvent)
	resultFns  []func(protocol.ResultEvent)
}

func (f *fakeSession) SupportsContexts() bool       { return f.contexts }
func (f *fakeSession) SupportsMobileContexts() bool { return f.mobile }
func (f *fakeSession) InNativeContext() bool        { return f.native }
func (f *fakeSession) SetNativeContext(v bool)      { f.native = v }

func (f *fakeSession) WindowHandle(_ context.Context) (string, error) {
	f.fetches++
	if f.handleErr != nil {
		return "", f.handleErr
	}
	return f.handle, nil
}

func (f *fakeSession) OnCommand(fn func(protocol.CommandEvent)) {
	f.commandFns = append(f.commandFns, fn)
}

func (f *fakeSession) OnResult(fn func(protocol.ResultEvent)) {
	f.resultFns = append(f.resultFns, fn)
}

func (f *fakeSession) emitCommand(ev protocol.CommandEvent) {
	for _, fn := range f.commandFns {
		fn(ev)
	}
}

func (f *fakeSession) emitResult(ev protocol.ResultEvent) {
	for _, fn := range f.resultFns {
		fn(ev)
	}
}

func TestDisabledWithoutCapabilities(t *testing.T) {
	sess := &fakeSession{}
	tr := New(sess)
	if tr.Enabled() {
		t.Fatalf("tracker should be disabled for a session without context support")
	}
	if len(sess.commandFns) != 0 || len(sess.resultFns) != 0 {
		t.Fatalf("disabled tracker must not subscribe to events")
	}
	got, err := tr.GetCurrentContext(context.Background())
	if err != nil || got != "" {
		t.Fatalf("disabled tracker should resolve to empty: %q, %v", got, err)
	}
	tr.SetCurrentContext("h1")
	if tr.Current() != "" {
		t.Fatalf("disabled tracker must stay empty after set")
	}
	if sess.fetches != 0 {
		t.Fatalf("disabled tracker must not fetch handles")
	}
}

func TestDisabledUnderUnitTestMode(t *testing.T) {
	t.Setenv("WDHUB_UNIT_TESTS", "1")
	sess := &fakeSession{contexts: true}
	tr := New(sess)
	if tr.Enabled() {
		t.Fatalf("tracker should be disabled under unit-test mode")
	}
	if len(sess.commandFns) != 0 {
		t.Fatalf("unit-test mode must suppress subscriptions")
	}
}

func TestSwitchToWindowSetsContext(t *testing.T) {
	sess := &fakeSession{contexts: true}
	tr := New(sess)
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToWindow, Handle: "h1"})
	got, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "h1" {
		t.Fatalf("expected h1, got %q", got)
	}
	if sess.fetches != 0 {
		t.Fatalf("no fetch expected after explicit switch, got %d", sess.fetches)
	}
	if sess.native {
		t.Fatalf("window handle is not a native context")
	}
}

func TestParentFrameClearsContext(t *testing.T) {
	sess := &fakeSession{contexts: true, handle: "h2"}
	tr := New(sess)
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToWindow, Handle: "h1"})
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToParentFrame})
	if tr.Current() != "" {
		t.Fatalf("parent frame switch should clear the stored context, got %q", tr.Current())
	}
	got, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "h2" {
		t.Fatalf("expected re-initialized handle h2, got %q", got)
	}
	if sess.fetches != 1 {
		t.Fatalf("expected exactly one fetch, got %d", sess.fetches)
	}
}

func TestRefreshClearsContext(t *testing.T) {
	sess := &fakeSession{contexts: true}
	tr := New(sess)
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToWindow, Handle: "h1"})
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandRefresh})
	if tr.Current() != "" {
		t.Fatalf("refresh should clear the stored context, got %q", tr.Current())
	}
}

func TestParentFrameWithHandleReapplies(t *testing.T) {
	sess := &fakeSession{contexts: true}
	tr := New(sess)
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToParentFrame, Handle: "h9"})
	if tr.Current() != "h9" {
		t.Fatalf("handle carried by the command should be re-applied, got %q", tr.Current())
	}
}

func TestGetContextResultAdoptsValue(t *testing.T) {
	sess := &fakeSession{contexts: true}
	tr := New(sess)
	sess.emitResult(protocol.ResultEvent{Command: protocol.CommandGetContext, Value: "ctx-42"})
	if tr.Current() != "ctx-42" {
		t.Fatalf("expected ctx-42, got %q", tr.Current())
	}
	if sess.native {
		t.Fatalf("ctx-42 is not the native sentinel")
	}

	sess.emitResult(protocol.ResultEvent{Command: protocol.CommandGetContext, Value: protocol.NativeApp})
	if tr.Current() != protocol.NativeApp {
		t.Fatalf("expected native sentinel, got %q", tr.Current())
	}
	if !sess.native {
		t.Fatalf("native flag should follow the sentinel")
	}
}

func TestSwitchContextNullResultFallsBack(t *testing.T) {
	sess := &fakeSession{mobile: true}
	tr := New(sess)
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchContext, Name: "WEBVIEW_1"})
	sess.emitResult(protocol.ResultEvent{Command: protocol.CommandSwitchContext, Null: true})
	if tr.Current() != "WEBVIEW_1" {
		t.Fatalf("expected fallback to remembered mobile context, got %q", tr.Current())
	}
}

func TestSwitchContextNullResultWithoutMemory(t *testing.T) {
	sess := &fakeSession{mobile: true}
	tr := New(sess)
	sess.emitResult(protocol.ResultEvent{Command: protocol.CommandSwitchContext, Null: true})
	if tr.Current() != "" {
		t.Fatalf("no remembered context, nothing to adopt: %q", tr.Current())
	}
}

func TestSetEmptyLeavesFlagAndForcesReinit(t *testing.T) {
	sess := &fakeSession{mobile: true, handle: "h3"}
	tr := New(sess)
	tr.SetCurrentContext(protocol.NativeApp)
	if !sess.native {
		t.Fatalf("native flag should be set")
	}
	tr.SetCurrentContext("")
	if !sess.native {
		t.Fatalf("empty set must leave the native flag unchanged")
	}
	if tr.Current() != "" {
		t.Fatalf("empty set must overwrite the stored context")
	}
	// Still flagged native, so re-initialization adopts the sentinel
	// without a handle fetch.
	got, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != protocol.NativeApp {
		t.Fatalf("expected native sentinel from re-init, got %q", got)
	}
	if sess.fetches != 0 {
		t.Fatalf("native session should not fetch a handle")
	}
}

func TestGetCurrentContextIdempotent(t *testing.T) {
	sess := &fakeSession{contexts: true, handle: "h4"}
	tr := New(sess)
	first, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first != "h4" || second != "h4" {
		t.Fatalf("expected stable h4, got %q then %q", first, second)
	}
	if sess.fetches != 1 {
		t.Fatalf("handle fetch should happen at most once, got %d", sess.fetches)
	}
}

func TestInitializeFailurePropagates(t *testing.T) {
	boom := errors.New("session gone")
	sess := &fakeSession{contexts: true, handleErr: boom}
	tr := New(sess)
	if _, err := tr.GetCurrentContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if tr.Current() != "" {
		t.Fatalf("failed init must leave the state absent")
	}
	// Next read retries.
	sess.handleErr = nil
	sess.handle = "h5"
	got, err := tr.GetCurrentContext(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got != "h5" || sess.fetches != 2 {
		t.Fatalf("expected retried fetch to resolve h5, got %q after %d fetches", got, sess.fetches)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	sess := &fakeSession{contexts: true}
	var causes []string
	tr := New(sess, WithObserver(func(_ Session, from, to, cause string) {
		causes = append(causes, cause+":"+from+">"+to)
	}))
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToWindow, Handle: "h1"})
	sess.emitCommand(protocol.CommandEvent{Command: protocol.CommandSwitchToParentFrame})
	tr.SetCurrentContext("h2")
	want := []string{"switchToWindow:>h1", "switchToParentFrame:h1>", "set:>h2"}
	if len(causes) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), causes)
	}
	for i := range want {
		if causes[i] != want[i] {
			t.Fatalf("transition %d: expected %q, got %q", i, want[i], causes[i])
		}
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	a := &fakeSession{contexts: true}
	b := &fakeSession{mobile: true}
	ta := reg.ForSession(a)
	if reg.ForSession(a) != ta {
		t.Fatalf("same session must map to the same tracker")
	}
	if reg.ForSession(b) == ta {
		t.Fatalf("distinct sessions must not share a tracker")
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 trackers, got %d", reg.Count())
	}
	reg.Forget(a)
	if reg.Count() != 1 {
		t.Fatalf("expected 1 tracker after forget, got %d", reg.Count())
	}
}
