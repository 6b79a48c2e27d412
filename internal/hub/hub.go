package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/daksh-r/webdriverio/internal/contexttracker"
	"github.com/daksh-r/webdriverio/internal/protocol"
	"github.com/daksh-r/webdriverio/internal/session"
)

var (
	ErrNoActiveSession = errors.New("no active automation session")
	ErrSessionNotFound = errors.New("automation session not found")
)

// Hub accepts driver agent connections and routes commands to them. Each
// accepted agent becomes one automation session; the hub correlates request
// and response frames by id and attaches a context tracker to every session
// at registration time.
type Hub struct {
	mu       sync.RWMutex
	agents   map[string]*agent
	activeID string
	pending  map[string]chan protocol.Response

	upgrader  websocket.Upgrader
	writeWait time.Duration
	helloWait time.Duration
	trackers  *contexttracker.Registry

	onDisconnect func(*session.Session)
}

type agent struct {
	sess    *session.Session
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Options configures the hub.
type Options struct {
	CheckOrigin     func(*http.Request) bool
	ReadBufferSize  int
	WriteBufferSize int
	WriteWait       time.Duration
	HelloWait       time.Duration
	// Trackers receives every registered session. Required.
	Trackers *contexttracker.Registry
	// OnDisconnect runs after a session is unregistered.
	OnDisconnect func(*session.Session)
}

func New(opts Options) *Hub {
	up := websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     opts.CheckOrigin,
	}
	if up.ReadBufferSize == 0 {
		up.ReadBufferSize = 2048
	}
	if up.WriteBufferSize == 0 {
		up.WriteBufferSize = 2048
	}
	writeWait := opts.WriteWait
	if writeWait == 0 {
		writeWait = 5 * time.Second
	}
	helloWait := opts.HelloWait
	if helloWait == 0 {
		helloWait = 10 * time.Second
	}
	trackers := opts.Trackers
	if trackers == nil {
		trackers = contexttracker.NewRegistry()
	}
	return &Hub{
		agents:       make(map[string]*agent),
		pending:      make(map[string]chan protocol.Response),
		upgrader:     up,
		writeWait:    writeWait,
		helloWait:    helloWait,
		trackers:     trackers,
		onDisconnect: opts.OnDisconnect,
	}
}

// HandleWS upgrades an agent connection, reads its hello frame, and serves
// its response stream until it disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	hello, err := readHello(conn, h.helloWait)
	if err != nil {
		log.Printf("ws hello failed: %v", err)
		conn.Close()
		return
	}

	id := hello.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	sess := session.New(id, hello)
	a := &agent{sess: sess, conn: conn}
	sess.SetExec(func(ctx context.Context, req protocol.Request) (protocol.Response, error) {
		return h.send(ctx, a, req)
	})

	h.mu.Lock()
	h.agents[id] = a
	h.activeID = id
	h.mu.Unlock()

	// Subscribes the tracker before any command can flow.
	h.trackers.ForSession(sess)

	log.Printf("agent connected: %s platform=%s contexts=%v mobile=%v",
		id, hello.Platform, hello.Capabilities.Contexts, hello.Capabilities.Mobile)
	h.readLoop(a)

	h.mu.Lock()
	delete(h.agents, id)
	if h.activeID == id {
		h.activeID = ""
		for sid := range h.agents {
			h.activeID = sid
			break
		}
	}
	h.mu.Unlock()

	h.trackers.Forget(sess)
	conn.Close()
	if h.onDisconnect != nil {
		h.onDisconnect(sess)
	}
	log.Printf("agent disconnected: %s", id)
}

func readHello(conn *websocket.Conn, wait time.Duration) (protocol.Hello, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	defer conn.SetReadDeadline(time.Time{})
	_, message, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	var hello protocol.Hello
	if err := json.Unmarshal(message, &hello); err != nil {
		return protocol.Hello{}, err
	}
	return hello, nil
}

func (h *Hub) readLoop(a *agent) {
	for {
		_, message, err := a.conn.ReadMessage()
		if err != nil {
			return
		}
		a.sess.Touch()
		var resp protocol.Response
		if err := json.Unmarshal(message, &resp); err != nil {
			debugf("invalid agent frame from %s: %v", a.sess.ID, err)
			continue
		}
		if resp.ID == "" {
			continue
		}
		h.deliver(resp)
	}
}

func (h *Hub) deliver(resp protocol.Response) {
	h.mu.Lock()
	ch := h.pending[resp.ID]
	if ch != nil {
		delete(h.pending, resp.ID)
	}
	h.mu.Unlock()

	if ch != nil {
		ch <- resp
		close(ch)
	}
}

// send writes a request to one agent and waits for the correlated response.
func (h *Hub) send(ctx context.Context, a *agent, req protocol.Request) (protocol.Response, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	msg, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, err
	}

	ch := make(chan protocol.Response, 1)
	h.mu.Lock()
	h.pending[req.ID] = ch
	h.mu.Unlock()

	debugf("-> %s %s", a.sess.ID, req.Command)
	a.writeMu.Lock()
	_ = a.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	err = a.conn.WriteMessage(websocket.TextMessage, msg)
	a.writeMu.Unlock()
	if err != nil {
		h.mu.Lock()
		delete(h.pending, req.ID)
		h.mu.Unlock()
		return protocol.Response{}, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		h.mu.Lock()
		delete(h.pending, req.ID)
		h.mu.Unlock()
		return protocol.Response{}, ctx.Err()
	}
}

// Active returns the session commands default to.
func (h *Hub) Active() (*session.Session, error) {
	h.mu.RLock()
	a := h.agents[h.activeID]
	h.mu.RUnlock()
	if a == nil {
		return nil, ErrNoActiveSession
	}
	return a.sess, nil
}

// Session returns a session by id, or the active one when id is empty.
func (h *Hub) Session(id string) (*session.Session, error) {
	if id == "" {
		return h.Active()
	}
	h.mu.RLock()
	a := h.agents[id]
	h.mu.RUnlock()
	if a == nil {
		return nil, ErrSessionNotFound
	}
	return a.sess, nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.agents)
}

// Disconnect closes an agent connection; its read loop performs the
// unregistration. Empty id targets the active session.
func (h *Hub) Disconnect(id string) error {
	h.mu.RLock()
	if id == "" {
		id = h.activeID
	}
	a := h.agents[id]
	h.mu.RUnlock()
	if a == nil {
		return ErrSessionNotFound
	}
	return a.conn.Close()
}

// SessionInfo is the admin-facing view of one session.
type SessionInfo struct {
	ID          string    `json:"id"`
	Platform    string    `json:"platform,omitempty"`
	BrowserName string    `json:"browser_name,omitempty"`
	Contexts    bool      `json:"contexts"`
	Mobile      bool      `json:"mobile"`
	Native      bool      `json:"native"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
	Active      bool      `json:"active"`
}

func (h *Hub) ListSessions() []SessionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]SessionInfo, 0, len(h.agents))
	for id, a := range h.agents {
		out = append(out, SessionInfo{
			ID:          id,
			Platform:    a.sess.Platform,
			BrowserName: a.sess.BrowserName,
			Contexts:    a.sess.SupportsContexts(),
			Mobile:      a.sess.SupportsMobileContexts(),
			Native:      a.sess.InNativeContext(),
			ConnectedAt: a.sess.ConnectedAt,
			LastSeen:    a.sess.LastSeen(),
			Active:      id == h.activeID,
		})
	}
	return out
}

// Trackers exposes the registry sessions are enrolled in.
func (h *Hub) Trackers() *contexttracker.Registry {
	return h.trackers
}
