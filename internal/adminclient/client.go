package adminclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/daksh-r/webdriverio/internal/admin"
	"github.com/daksh-r/webdriverio/internal/clients"
)

// Client is the typed HTTP client for the daemon's admin API, used by the
// TUI dashboard.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) Status(ctx context.Context) (admin.Status, error) {
	var out admin.Status
	err := c.getJSON(ctx, "/admin/status", &out)
	return out, err
}

func (c *Client) ListClients(ctx context.Context) ([]clients.Info, error) {
	var out []clients.Info
	if err := c.getJSON(ctx, "/admin/clients", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]admin.SessionView, error) {
	var out []admin.SessionView
	if err := c.getJSON(ctx, "/admin/sessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DisconnectClient(ctx context.Context, id string) error {
	return c.post(ctx, "/admin/clients/disconnect?id="+url.QueryEscape(id))
}

func (c *Client) DisconnectSession(ctx context.Context, id string) error {
	return c.post(ctx, "/admin/sessions/disconnect?id="+url.QueryEscape(id))
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("admin request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodPost, path)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("admin request failed: %s", resp.Status)
	}
	return nil
}
