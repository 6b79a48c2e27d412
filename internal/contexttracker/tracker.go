// Package contexttracker reconciles the browsing context an automation
// session currently targets. Context changes are never reported directly by
// the protocol; they surface as side effects of unrelated commands, so the
// tracker observes each session's command and result events and folds the
// relevant ones into a single authoritative value.
package contexttracker

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

// Session is the slice of an automation session the tracker consumes.
type Session interface {
	SupportsContexts() bool
	SupportsMobileContexts() bool
	InNativeContext() bool
	SetNativeContext(bool)
	WindowHandle(ctx context.Context) (string, error)
	OnCommand(func(protocol.CommandEvent))
	OnResult(func(protocol.ResultEvent))
}

// Observer is notified after the tracked context changes value. Cause is the
// command name that triggered the change, or "set"/"initialize" for the
// direct write paths.
type Observer func(sess Session, from, to, cause string)

// Tracker maintains the current context for one session. Event handlers run
// inline on the session's dispatch path, so the tracked value is never stale
// by more than the event currently being delivered.
type Tracker struct {
	session  Session
	enabled  bool
	observer Observer

	mu    sync.Mutex
	state State
}

// New builds a tracker for the session. Tracking is disabled when running
// under unit-test mode or when the session supports neither the
// context-addressed protocol nor mobile contexts; a disabled tracker
// registers no subscriptions and all its methods return empty values. The
// gate is evaluated once, here.
func New(sess Session, opts ...Option) *Tracker {
	t := &Tracker{session: sess}
	for _, opt := range opts {
		opt(t)
	}
	if unitTestMode() {
		return t
	}
	if !sess.SupportsContexts() && !sess.SupportsMobileContexts() {
		return t
	}
	t.enabled = true
	sess.OnCommand(t.handleCommand)
	sess.OnResult(t.handleResult)
	return t
}

type Option func(*Tracker)

// WithObserver registers a change observer, invoked outside the tracker's
// lock after each change of the current context.
func WithObserver(fn Observer) Option {
	return func(t *Tracker) { t.observer = fn }
}

// Enabled reports whether the tracker subscribed to the session at all.
func (t *Tracker) Enabled() bool { return t.enabled }

// Current returns the tracked value without triggering lazy initialization.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Current
}

// SetCurrentContext stores the value unconditionally. A non-empty value also
// updates the session's native-app flag (true exactly when the value is the
// NATIVE_APP sentinel); an empty value leaves the flag untouched.
func (t *Tracker) SetCurrentContext(value string) {
	if !t.enabled {
		return
	}
	t.apply("set", func(s State) (State, bool) {
		return applySet(s, value)
	})
}

// GetCurrentContext returns the current context, lazily initializing it on
// first use. Disabled trackers always return "".
func (t *Tracker) GetCurrentContext(ctx context.Context) (string, error) {
	if !t.enabled {
		return "", nil
	}
	t.mu.Lock()
	current := t.state.Current
	t.mu.Unlock()
	if current != "" {
		return current, nil
	}
	return t.Initialize(ctx)
}

// Initialize resolves the starting context: the NATIVE_APP sentinel when the
// session reports a native-app context, otherwise the session's active
// window handle. A fetch failure propagates unmodified and leaves the state
// absent, so the next read retries.
func (t *Tracker) Initialize(ctx context.Context) (string, error) {
	if !t.enabled {
		return "", nil
	}
	resolved := protocol.NativeApp
	if !t.session.InNativeContext() {
		handle, err := t.session.WindowHandle(ctx)
		if err != nil {
			return "", err
		}
		resolved = handle
	}
	// Stored directly rather than through the setter: the native-app flag
	// already agrees with what was just observed.
	t.mu.Lock()
	from := t.state.Current
	t.state.Current = resolved
	t.mu.Unlock()
	t.notify(from, resolved, "initialize")
	return resolved, nil
}

func (t *Tracker) handleCommand(ev protocol.CommandEvent) {
	t.apply(string(ev.Command), func(s State) (State, bool) {
		return applyCommand(s, ev)
	})
}

func (t *Tracker) handleResult(ev protocol.ResultEvent) {
	t.apply(string(ev.Command), func(s State) (State, bool) {
		return applyResult(s, ev)
	})
}

func (t *Tracker) apply(cause string, fn func(State) (State, bool)) {
	t.mu.Lock()
	from := t.state.Current
	next, syncFlag := fn(t.state)
	t.state = next
	t.mu.Unlock()
	if syncFlag {
		t.session.SetNativeContext(next.Current == protocol.NativeApp)
	}
	if next.Current != from {
		t.notify(from, next.Current, cause)
	}
}

func (t *Tracker) notify(from, to, cause string) {
	if t.observer == nil || to == from {
		return
	}
	t.observer(t.session, from, to, cause)
}

func unitTestMode() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("WDHUB_UNIT_TESTS")))
	return v == "1" || v == "true" || v == "yes"
}
