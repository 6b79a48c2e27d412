package clients

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Info describes one connected MCP client for the admin surface.
type Info struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Transport   string    `json:"transport,omitempty"`
	RemoteAddr  string    `json:"remote_addr,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Info
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Info)}
}

// Register adds a client, minting an id when none is supplied.
func (r *Registry) Register(id string, info Info) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	info.ID = id
	if info.ConnectedAt.IsZero() {
		info.ConnectedAt = now
	}
	info.LastSeen = now
	r.entries[id] = &info
	return id
}

// Touch refreshes a client's liveness, merging any newly known fields, and
// registers it when unseen.
func (r *Registry) Touch(id string, info Info) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	existing, ok := r.entries[id]
	if !ok {
		info.ID = id
		info.ConnectedAt = now
		info.LastSeen = now
		r.entries[id] = &info
		return
	}
	merge(&existing.Name, info.Name)
	merge(&existing.Transport, info.Transport)
	merge(&existing.RemoteAddr, info.RemoteAddr)
	merge(&existing.UserAgent, info.UserAgent)
	existing.LastSeen = now
}

func merge(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (r *Registry) Unregister(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, c := range r.entries {
		out = append(out, *c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Prune drops clients idle longer than maxIdle.
func (r *Registry) Prune(maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.entries {
		if c.LastSeen.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}
