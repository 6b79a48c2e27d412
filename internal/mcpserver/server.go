package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/daksh-r/webdriverio/internal/driver"
	"github.com/daksh-r/webdriverio/internal/history"
	"github.com/daksh-r/webdriverio/internal/hub"
)

type Options struct {
	Implementation *mcp.Implementation
	Instructions   string
}

type Server struct {
	mcpServer *mcp.Server
	driver    driver.Driver
	hub       *hub.Hub
	history   *history.Log
}

// TargetInput selects the session a tool call addresses; empty means the
// active session.
type TargetInput struct {
	SessionID string `json:"sessionId,omitempty" jsonschema:"automation session id"`
}

func New(drv driver.Driver, h *hub.Hub, hist *history.Log, opts Options) *Server {
	impl := opts.Implementation
	if impl == nil {
		impl = &mcp.Implementation{Name: "wdhub", Version: "v1.0.0"}
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{Instructions: opts.Instructions})
	s := &Server{mcpServer: server, driver: drv, hub: h, history: hist}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.navigate",
		Description: "Navigate the session to a URL.",
	}, s.navigate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.refresh",
		Description: "Reload the current page. Resets any tracked context identity.",
	}, s.refresh)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.back",
		Description: "Navigate backward in session history.",
	}, s.back)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.forward",
		Description: "Navigate forward in session history.",
	}, s.forward)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.url",
		Description: "Return the current page URL.",
	}, s.getURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.title",
		Description: "Return the current page title.",
	}, s.getTitle)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.window_handles",
		Description: "List all window handles of the session.",
	}, s.windowHandles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.switch_window",
		Description: "Switch the session to a window by handle.",
	}, s.switchWindow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.switch_frame",
		Description: "Switch the session into a frame by reference or index.",
	}, s.switchFrame)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.parent_frame",
		Description: "Switch the session back to the parent frame.",
	}, s.parentFrame)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.contexts",
		Description: "List available contexts (web views, NATIVE_APP) on a mobile session.",
	}, s.contexts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.switch_context",
		Description: "Switch a mobile session to a named context.",
	}, s.switchContext)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.current_context",
		Description: "Return the reconciled current context of the session (window handle, context id, or NATIVE_APP).",
	}, s.currentContext)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.screenshot",
		Description: "Capture a screenshot of the session's viewport.",
	}, s.screenshot)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "driver.sessions",
		Description: "List connected automation sessions and their tracked contexts.",
	}, s.sessions)

	server.AddResource(&mcp.Resource{
		Name:        "context_transitions",
		Description: "Context transition trails for all connected sessions.",
		URI:         "session://contexts",
		MIMEType:    "application/json",
	}, s.readTransitions)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "session_context",
		Description: "Context transition trail for one session.",
		URITemplate: "session://{session_id}/context",
		MIMEType:    "application/json",
	}, s.readSessionContext)

	return s
}

func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func (s *Server) withTarget(ctx context.Context, target TargetInput) context.Context {
	if target.SessionID == "" {
		return ctx
	}
	return driver.WithTarget(ctx, driver.Target{SessionID: target.SessionID})
}

type NavigateInput struct {
	TargetInput
	URL string `json:"url" jsonschema:"URL to navigate to"`
}

type NavigateOutput struct {
	URL string `json:"url" jsonschema:"URL the session navigated to"`
}

func (s *Server) navigate(ctx context.Context, _ *mcp.CallToolRequest, input NavigateInput) (*mcp.CallToolResult, NavigateOutput, error) {
	if input.URL == "" {
		return nil, NavigateOutput{}, errors.New("url is required")
	}
	ctx = s.withTarget(ctx, input.TargetInput)
	result, err := s.driver.Navigate(ctx, input.URL)
	if err != nil {
		return nil, NavigateOutput{}, err
	}
	return nil, NavigateOutput{URL: result.URL}, nil
}

type StatusOutput struct {
	Status string `json:"status" jsonschema:"operation status"`
}

func (s *Server) refresh(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, StatusOutput, error) {
	ctx = s.withTarget(ctx, input)
	if err := s.driver.Refresh(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

func (s *Server) back(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, StatusOutput, error) {
	ctx = s.withTarget(ctx, input)
	if err := s.driver.Back(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

func (s *Server) forward(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, StatusOutput, error) {
	ctx = s.withTarget(ctx, input)
	if err := s.driver.Forward(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

type ValueOutput struct {
	Value string `json:"value" jsonschema:"returned value"`
}

func (s *Server) getURL(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, ValueOutput, error) {
	ctx = s.withTarget(ctx, input)
	value, err := s.driver.URL(ctx)
	if err != nil {
		return nil, ValueOutput{}, err
	}
	return nil, ValueOutput{Value: value}, nil
}

func (s *Server) getTitle(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, ValueOutput, error) {
	ctx = s.withTarget(ctx, input)
	value, err := s.driver.Title(ctx)
	if err != nil {
		return nil, ValueOutput{}, err
	}
	return nil, ValueOutput{Value: value}, nil
}

type HandlesOutput struct {
	Handles []string `json:"handles" jsonschema:"window handles"`
}

func (s *Server) windowHandles(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, HandlesOutput, error) {
	ctx = s.withTarget(ctx, input)
	handles, err := s.driver.WindowHandles(ctx)
	if err != nil {
		return nil, HandlesOutput{}, err
	}
	return nil, HandlesOutput{Handles: handles}, nil
}

type SwitchWindowInput struct {
	TargetInput
	Handle string `json:"handle" jsonschema:"window handle to switch to"`
}

func (s *Server) switchWindow(ctx context.Context, _ *mcp.CallToolRequest, input SwitchWindowInput) (*mcp.CallToolResult, StatusOutput, error) {
	if input.Handle == "" {
		return nil, StatusOutput{}, errors.New("handle is required")
	}
	ctx = s.withTarget(ctx, input.TargetInput)
	if err := s.driver.SwitchToWindow(ctx, input.Handle); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

type SwitchFrameInput struct {
	TargetInput
	Frame string `json:"frame,omitempty" jsonschema:"frame reference or index; empty for top-level"`
}

func (s *Server) switchFrame(ctx context.Context, _ *mcp.CallToolRequest, input SwitchFrameInput) (*mcp.CallToolResult, StatusOutput, error) {
	ctx = s.withTarget(ctx, input.TargetInput)
	if err := s.driver.SwitchToFrame(ctx, input.Frame); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

func (s *Server) parentFrame(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, StatusOutput, error) {
	ctx = s.withTarget(ctx, input)
	if err := s.driver.SwitchToParentFrame(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

type ContextsOutput struct {
	Contexts []string `json:"contexts" jsonschema:"available context names"`
}

func (s *Server) contexts(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, ContextsOutput, error) {
	ctx = s.withTarget(ctx, input)
	names, err := s.driver.Contexts(ctx)
	if err != nil {
		return nil, ContextsOutput{}, err
	}
	return nil, ContextsOutput{Contexts: names}, nil
}

type SwitchContextInput struct {
	TargetInput
	Name string `json:"name" jsonschema:"context name, e.g. WEBVIEW_1 or NATIVE_APP"`
}

func (s *Server) switchContext(ctx context.Context, _ *mcp.CallToolRequest, input SwitchContextInput) (*mcp.CallToolResult, StatusOutput, error) {
	if input.Name == "" {
		return nil, StatusOutput{}, errors.New("name is required")
	}
	ctx = s.withTarget(ctx, input.TargetInput)
	if err := s.driver.SwitchContext(ctx, input.Name); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "ok"}, nil
}

type CurrentContextOutput struct {
	Context string `json:"context" jsonschema:"reconciled current context"`
	Native  bool   `json:"native" jsonschema:"whether the session targets the native app layer"`
}

func (s *Server) currentContext(ctx context.Context, _ *mcp.CallToolRequest, input TargetInput) (*mcp.CallToolResult, CurrentContextOutput, error) {
	ctx = s.withTarget(ctx, input)
	value, err := s.driver.CurrentContext(ctx)
	if err != nil {
		return nil, CurrentContextOutput{}, err
	}
	sess, err := s.hub.Session(input.SessionID)
	if err != nil {
		return nil, CurrentContextOutput{}, err
	}
	return nil, CurrentContextOutput{Context: value, Native: sess.InNativeContext()}, nil
}

type ScreenshotInput struct {
	TargetInput
	Format  string  `json:"format,omitempty" jsonschema:"image format, png or jpeg"`
	Quality float64 `json:"quality,omitempty" jsonschema:"jpeg quality between 0 and 1"`
}

type ScreenshotOutput struct {
	Data   string `json:"data" jsonschema:"base64-encoded image data"`
	Format string `json:"format" jsonschema:"image format"`
}

func (s *Server) screenshot(ctx context.Context, _ *mcp.CallToolRequest, input ScreenshotInput) (*mcp.CallToolResult, ScreenshotOutput, error) {
	ctx = s.withTarget(ctx, input.TargetInput)
	result, err := s.driver.Screenshot(ctx, driver.ScreenshotOptions{Format: input.Format, Quality: input.Quality})
	if err != nil {
		return nil, ScreenshotOutput{}, err
	}
	return nil, ScreenshotOutput{Data: result.Data, Format: result.Format}, nil
}

type SessionsOutput struct {
	Sessions []SessionEntry `json:"sessions" jsonschema:"connected automation sessions"`
}

type SessionEntry struct {
	ID             string `json:"id" jsonschema:"session id"`
	Platform       string `json:"platform,omitempty" jsonschema:"agent platform"`
	BrowserName    string `json:"browserName,omitempty" jsonschema:"agent browser"`
	Active         bool   `json:"active" jsonschema:"whether this is the active session"`
	CurrentContext string `json:"currentContext,omitempty" jsonschema:"tracked current context"`
}

func (s *Server) sessions(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SessionsOutput, error) {
	infos := s.hub.ListSessions()
	out := SessionsOutput{Sessions: make([]SessionEntry, 0, len(infos))}
	for _, info := range infos {
		entry := SessionEntry{
			ID:          info.ID,
			Platform:    info.Platform,
			BrowserName: info.BrowserName,
			Active:      info.Active,
		}
		if sess, err := s.hub.Session(info.ID); err == nil {
			entry.CurrentContext = s.hub.Trackers().ForSession(sess).Current()
		}
		out.Sessions = append(out.Sessions, entry)
	}
	return nil, out, nil
}

func (s *Server) readTransitions(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil || req.Params == nil {
		return nil, errors.New("missing resource params")
	}
	trails := make(map[string][]history.Entry)
	for _, id := range s.history.Sessions() {
		trails[id] = s.history.Entries(id)
	}
	data, err := json.MarshalIndent(trails, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

func (s *Server) readSessionContext(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil || req.Params == nil {
		return nil, errors.New("missing resource params")
	}
	u, err := url.Parse(req.Params.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URI: %w", err)
	}
	if u.Scheme != "session" {
		return nil, fmt.Errorf("unsupported resource URI: %s", req.Params.URI)
	}
	id := u.Host
	if id == "" || strings.Trim(u.Path, "/") != "context" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	sess, err := s.hub.Session(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	payload := struct {
		SessionID      string          `json:"session_id"`
		CurrentContext string          `json:"current_context,omitempty"`
		Native         bool            `json:"native"`
		History        []history.Entry `json:"history,omitempty"`
	}{
		SessionID:      id,
		CurrentContext: s.hub.Trackers().ForSession(sess).Current(),
		Native:         sess.InNativeContext(),
		History:        s.history.Entries(id),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
