package wsdriver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/daksh-r/webdriverio/internal/driver"
	"github.com/daksh-r/webdriverio/internal/hub"
	"github.com/daksh-r/webdriverio/internal/protocol"
	"github.com/daksh-r/webdriverio/internal/session"
)

type Options struct {
	Timeout time.Duration
}

// Client implements driver.Driver over hub-connected agents.
type Client struct {
	hub     *hub.Hub
	timeout time.Duration
}

func NewClient(h *hub.Hub, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{hub: h, timeout: timeout}
}

func (c *Client) Navigate(ctx context.Context, url string) (driver.NavigateResult, error) {
	if url == "" {
		return driver.NavigateResult{}, errors.New("url is required")
	}
	if err := c.call(ctx, protocol.CommandNavigate, protocol.NavigateParams{URL: url}, nil); err != nil {
		return driver.NavigateResult{}, err
	}
	return driver.NavigateResult{URL: url}, nil
}

func (c *Client) Refresh(ctx context.Context) error {
	return c.call(ctx, protocol.CommandRefresh, nil, nil)
}

func (c *Client) Back(ctx context.Context) error {
	return c.call(ctx, protocol.CommandBack, nil, nil)
}

func (c *Client) Forward(ctx context.Context) error {
	return c.call(ctx, protocol.CommandForward, nil, nil)
}

func (c *Client) URL(ctx context.Context) (string, error) {
	return c.stringCall(ctx, protocol.CommandGetURL)
}

func (c *Client) Title(ctx context.Context) (string, error) {
	return c.stringCall(ctx, protocol.CommandGetTitle)
}

func (c *Client) WindowHandle(ctx context.Context) (string, error) {
	return c.stringCall(ctx, protocol.CommandGetWindowHandle)
}

func (c *Client) WindowHandles(ctx context.Context) ([]string, error) {
	resp, err := c.execute(ctx, protocol.CommandGetWindowHandles, nil)
	if err != nil {
		return nil, err
	}
	return protocol.StringsValue(resp)
}

func (c *Client) SwitchToWindow(ctx context.Context, handle string) error {
	if handle == "" {
		return errors.New("window handle is required")
	}
	return c.call(ctx, protocol.CommandSwitchToWindow, protocol.SwitchWindowParams{Handle: handle}, nil)
}

func (c *Client) SwitchToFrame(ctx context.Context, id string) error {
	return c.call(ctx, protocol.CommandSwitchToFrame, protocol.SwitchFrameParams{ID: id}, nil)
}

func (c *Client) SwitchToParentFrame(ctx context.Context) error {
	return c.call(ctx, protocol.CommandSwitchToParentFrame, nil, nil)
}

func (c *Client) Contexts(ctx context.Context) ([]string, error) {
	resp, err := c.execute(ctx, protocol.CommandGetContexts, nil)
	if err != nil {
		return nil, err
	}
	return protocol.StringsValue(resp)
}

func (c *Client) SwitchContext(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("context name is required")
	}
	return c.call(ctx, protocol.CommandSwitchContext, protocol.SwitchContextParams{Name: name}, nil)
}

func (c *Client) CurrentContext(ctx context.Context) (string, error) {
	sess, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return c.hub.Trackers().ForSession(sess).GetCurrentContext(ctx)
}

func (c *Client) Screenshot(ctx context.Context, opts driver.ScreenshotOptions) (driver.ScreenshotResult, error) {
	resp, err := c.execute(ctx, protocol.CommandTakeScreenshot, protocol.ScreenshotParams{
		Format:  opts.Format,
		Quality: opts.Quality,
	})
	if err != nil {
		return driver.ScreenshotResult{}, err
	}
	data, err := protocol.StringValue(resp)
	if err != nil {
		return driver.ScreenshotResult{}, err
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}
	return driver.ScreenshotResult{Data: data, Format: format}, nil
}

func (c *Client) resolve(ctx context.Context) (*session.Session, error) {
	if target, ok := driver.TargetFromContext(ctx); ok {
		return c.hub.Session(target.SessionID)
	}
	return c.hub.Active()
}

func (c *Client) execute(ctx context.Context, cmd protocol.Command, params any) (protocol.Response, error) {
	sess, err := c.resolve(ctx)
	if err != nil {
		return protocol.Response{}, err
	}
	var raw json.RawMessage
	if params != nil {
		raw, err = json.Marshal(params)
		if err != nil {
			return protocol.Response{}, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := sess.Execute(ctx, protocol.Request{Command: cmd, Params: raw})
	if err != nil {
		return protocol.Response{}, err
	}
	if !resp.OK {
		return protocol.Response{}, errors.New(resp.Error)
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, cmd protocol.Command, params any, out any) error {
	resp, err := c.execute(ctx, cmd, params)
	if err != nil {
		return err
	}
	if out != nil && len(resp.Value) > 0 {
		return json.Unmarshal(resp.Value, out)
	}
	return nil
}

func (c *Client) stringCall(ctx context.Context, cmd protocol.Command) (string, error) {
	resp, err := c.execute(ctx, cmd, nil)
	if err != nil {
		return "", err
	}
	return protocol.StringValue(resp)
}
