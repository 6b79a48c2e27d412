package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daksh-r/webdriverio/internal/clients"
	"github.com/daksh-r/webdriverio/internal/config"
	"github.com/daksh-r/webdriverio/internal/history"
	"github.com/daksh-r/webdriverio/internal/hub"
)

const historyTail = 10

type Status struct {
	Uptime     string `json:"uptime"`
	MCPClients int    `json:"mcp_clients"`
	Sessions   int    `json:"sessions"`
}

// SessionView extends the hub's session info with the tracked context.
type SessionView struct {
	hub.SessionInfo
	Tracking       bool            `json:"tracking"`
	CurrentContext string          `json:"current_context,omitempty"`
	History        []history.Entry `json:"history,omitempty"`
}

type Handlers struct {
	StartedAt  time.Time
	Clients    *clients.Registry
	Hub        *hub.Hub
	History    *history.Log
	MaxIdle    time.Duration
	ConfigPath string
}

func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	h.prune()
	writeJSON(w, Status{
		Uptime:     time.Since(h.StartedAt).String(),
		MCPClients: h.Clients.Count(),
		Sessions:   h.Hub.Count(),
	})
}

func (h *Handlers) ClientsList(w http.ResponseWriter, _ *http.Request) {
	h.prune()
	writeJSON(w, h.Clients.List())
}

func (h *Handlers) SessionsList(w http.ResponseWriter, _ *http.Request) {
	infos := h.Hub.ListSessions()
	resp := make([]SessionView, 0, len(infos))
	for _, info := range infos {
		view := SessionView{SessionInfo: info}
		if sess, err := h.Hub.Session(info.ID); err == nil {
			tracker := h.Hub.Trackers().ForSession(sess)
			view.Tracking = tracker.Enabled()
			// Non-initializing read: listing sessions must not push
			// commands at the agents.
			view.CurrentContext = tracker.Current()
		}
		if h.History != nil {
			view.History = h.History.Tail(info.ID, historyTail)
		}
		resp = append(resp, view)
	}
	writeJSON(w, resp)
}

func (h *Handlers) DisconnectClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	h.Clients.Unregister(id)
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h *Handlers) DisconnectSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	useActive := id == "active"
	if useActive {
		id = ""
	}
	if id == "" && !useActive {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	if err := h.Hub.Disconnect(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if useActive {
		id = "active"
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type ConfigPayload struct {
	Path               string `json:"path,omitempty"`
	DaemonAddr         string `json:"daemon_addr"`
	MCPToken           string `json:"mcp_token"`
	AdminToken         string `json:"admin_token"`
	ClientMaxIdle      string `json:"client_max_idle"`
	CommandTimeout     string `json:"command_timeout"`
	AdminBaseURL       string `json:"admin_base_url"`
	TUIRefreshInterval string `json:"tui_refresh_interval"`
}

func (h *Handlers) ConfigGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	settings, err := config.LoadOrCreate(h.ConfigPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, payloadFromSettings(settings))
}

func (h *Handlers) ConfigSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var payload ConfigPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxIdle, err := time.ParseDuration(strings.TrimSpace(payload.ClientMaxIdle))
	if err != nil {
		http.Error(w, "invalid client_max_idle", http.StatusBadRequest)
		return
	}
	cmdTimeout, err := time.ParseDuration(strings.TrimSpace(payload.CommandTimeout))
	if err != nil {
		http.Error(w, "invalid command_timeout", http.StatusBadRequest)
		return
	}
	refresh, err := time.ParseDuration(strings.TrimSpace(payload.TUIRefreshInterval))
	if err != nil {
		http.Error(w, "invalid tui_refresh_interval", http.StatusBadRequest)
		return
	}

	next := config.Settings{
		Path:               strings.TrimSpace(payload.Path),
		DaemonAddr:         strings.TrimSpace(payload.DaemonAddr),
		MCPToken:           strings.TrimSpace(payload.MCPToken),
		AdminToken:         strings.TrimSpace(payload.AdminToken),
		ClientMaxIdle:      maxIdle,
		CommandTimeout:     cmdTimeout,
		AdminBaseURL:       strings.TrimSpace(payload.AdminBaseURL),
		TUIRefreshInterval: refresh,
	}
	if next.Path == "" {
		next.Path = h.ConfigPath
	}

	saved, err := config.Save(next)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, payloadFromSettings(saved))
}

func payloadFromSettings(settings config.Settings) ConfigPayload {
	return ConfigPayload{
		Path:               settings.Path,
		DaemonAddr:         settings.DaemonAddr,
		MCPToken:           settings.MCPToken,
		AdminToken:         settings.AdminToken,
		ClientMaxIdle:      settings.ClientMaxIdle.String(),
		CommandTimeout:     settings.CommandTimeout.String(),
		AdminBaseURL:       settings.AdminBaseURL,
		TUIRefreshInterval: settings.TUIRefreshInterval.String(),
	}
}

func (h *Handlers) prune() {
	if h.MaxIdle > 0 {
		h.Clients.Prune(h.MaxIdle)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(value)
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid json payload")
	}
	return nil
}
