package protocol

import "encoding/json"

type Command string

const (
	CommandNavigate            Command = "navigate"
	CommandRefresh             Command = "refresh"
	CommandBack                Command = "back"
	CommandForward             Command = "forward"
	CommandGetURL              Command = "getUrl"
	CommandGetTitle            Command = "getTitle"
	CommandGetWindowHandle     Command = "getWindowHandle"
	CommandGetWindowHandles    Command = "getWindowHandles"
	CommandSwitchToWindow      Command = "switchToWindow"
	CommandSwitchToFrame       Command = "switchToFrame"
	CommandSwitchToParentFrame Command = "switchToParentFrame"
	CommandGetContext          Command = "getContext"
	CommandGetContexts         Command = "getContexts"
	CommandSwitchContext       Command = "switchContext"
	CommandTakeScreenshot      Command = "takeScreenshot"
)

// NativeApp is the reserved context value meaning the session currently
// controls the native application layer rather than a web view.
const NativeApp = "NATIVE_APP"

// Request is sent hub -> agent. Params carries the command-specific payload.
type Request struct {
	ID        string          `json:"id"`
	Command   Command         `json:"command"`
	SessionID string          `json:"sessionId,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response is sent agent -> hub in reply to a Request with the same ID.
type Response struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Hello is the first frame an agent sends after connecting.
type Hello struct {
	SessionID    string       `json:"sessionId,omitempty"`
	Platform     string       `json:"platform,omitempty"`
	BrowserName  string       `json:"browserName,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities describes which addressing schemes an agent supports.
type Capabilities struct {
	Contexts  bool `json:"contexts"`
	Mobile    bool `json:"mobile"`
	NativeApp bool `json:"nativeApp,omitempty"`
}

type NavigateParams struct {
	URL string `json:"url"`
}

type SwitchWindowParams struct {
	Handle string `json:"handle"`
}

type SwitchFrameParams struct {
	// Frame element reference or index encoded as a string; empty means
	// the top-level browsing context.
	ID string `json:"id,omitempty"`
}

type SwitchContextParams struct {
	Name string `json:"name"`
}

type ScreenshotParams struct {
	Format  string  `json:"format,omitempty"`
	Quality float64 `json:"quality,omitempty"`
}
