package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/daksh-r/webdriverio/internal/protocol"
)

var ErrNoExecutor = errors.New("session has no executor attached")

// ExecFunc dispatches a request to the agent behind this session and waits
// for its response. The hub installs it at registration time.
type ExecFunc func(ctx context.Context, req protocol.Request) (protocol.Response, error)

// Session represents one connected driver agent. Command and result events
// are emitted synchronously around every Execute call: handlers run inline,
// before Execute returns to its caller.
type Session struct {
	ID          string
	Platform    string
	BrowserName string
	ConnectedAt time.Time

	caps protocol.Capabilities

	mu       sync.RWMutex
	native   bool
	lastSeen time.Time
	exec     ExecFunc

	handlerMu       sync.RWMutex
	commandHandlers []func(protocol.CommandEvent)
	resultHandlers  []func(protocol.ResultEvent)
}

func New(id string, hello protocol.Hello) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		Platform:    hello.Platform,
		BrowserName: hello.BrowserName,
		ConnectedAt: now,
		caps:        hello.Capabilities,
		native:      hello.Capabilities.NativeApp,
		lastSeen:    now,
	}
}

// SupportsContexts reports whether the agent speaks the context-addressed
// protocol (opaque browsing-context ids instead of legacy window handles).
func (s *Session) SupportsContexts() bool { return s.caps.Contexts }

// SupportsMobileContexts reports whether the agent handles named mobile
// contexts (native or hybrid app automation).
func (s *Session) SupportsMobileContexts() bool { return s.caps.Mobile }

func (s *Session) InNativeContext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.native
}

func (s *Session) SetNativeContext(native bool) {
	s.mu.Lock()
	s.native = native
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) SetExec(exec ExecFunc) {
	s.mu.Lock()
	s.exec = exec
	s.mu.Unlock()
}

// OnCommand registers a handler invoked for every outgoing request, before
// it is dispatched to the agent.
func (s *Session) OnCommand(fn func(protocol.CommandEvent)) {
	s.handlerMu.Lock()
	s.commandHandlers = append(s.commandHandlers, fn)
	s.handlerMu.Unlock()
}

// OnResult registers a handler invoked for every completed request, after
// the agent's response arrives and before Execute returns.
func (s *Session) OnResult(fn func(protocol.ResultEvent)) {
	s.handlerMu.Lock()
	s.resultHandlers = append(s.resultHandlers, fn)
	s.handlerMu.Unlock()
}

func (s *Session) EmitCommand(ev protocol.CommandEvent) {
	s.handlerMu.RLock()
	handlers := s.commandHandlers
	s.handlerMu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

func (s *Session) EmitResult(ev protocol.ResultEvent) {
	s.handlerMu.RLock()
	handlers := s.resultHandlers
	s.handlerMu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// Execute dispatches a request through the attached executor, emitting the
// command event before the write and the result event after a successful
// response. Transport errors emit no result event.
func (s *Session) Execute(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	s.mu.RLock()
	exec := s.exec
	s.mu.RUnlock()
	if exec == nil {
		return protocol.Response{}, ErrNoExecutor
	}
	req.SessionID = s.ID
	s.EmitCommand(protocol.DecodeCommandEvent(req))
	resp, err := exec(ctx, req)
	if err != nil {
		return protocol.Response{}, err
	}
	s.EmitResult(protocol.DecodeResultEvent(req.Command, resp))
	return resp, nil
}

// WindowHandle fetches the agent's active window handle. Errors propagate
// unmodified.
func (s *Session) WindowHandle(ctx context.Context) (string, error) {
	resp, err := s.Execute(ctx, protocol.Request{Command: protocol.CommandGetWindowHandle})
	if err != nil {
		return "", err
	}
	if !resp.OK {
		return "", errors.New(resp.Error)
	}
	return protocol.StringValue(resp)
}
