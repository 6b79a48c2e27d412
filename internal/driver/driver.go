package driver

import "context"

// Driver is the typed command surface over an automation session.
type Driver interface {
	Navigate(ctx context.Context, url string) (NavigateResult, error)
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	WindowHandle(ctx context.Context) (string, error)
	WindowHandles(ctx context.Context) ([]string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	SwitchToFrame(ctx context.Context, id string) error
	SwitchToParentFrame(ctx context.Context) error
	Contexts(ctx context.Context) ([]string, error)
	SwitchContext(ctx context.Context, name string) error
	// CurrentContext resolves from the session's context tracker, not the
	// wire: it is the reconciled value, lazily initialized on first use.
	CurrentContext(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, opts ScreenshotOptions) (ScreenshotResult, error)
}

type NavigateResult struct {
	URL string `json:"url"`
}

type ScreenshotOptions struct {
	Format  string
	Quality float64
}

type ScreenshotResult struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}
