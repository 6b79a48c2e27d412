package history

import (
	"sync"
	"time"
)

const defaultLimit = 64

// Entry records one context transition for a session.
type Entry struct {
	At    time.Time `json:"at"`
	From  string    `json:"from,omitempty"`
	To    string    `json:"to"`
	Cause string    `json:"cause"`
}

// Log keeps a bounded per-session trail of context transitions.
type Log struct {
	mu    sync.RWMutex
	limit int
	items map[string][]Entry
}

func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Log{limit: limit, items: make(map[string][]Entry)}
}

func (l *Log) Append(sessionID string, entry Entry) {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := append(l.items[sessionID], entry)
	if len(entries) > l.limit {
		entries = entries[len(entries)-l.limit:]
	}
	l.items[sessionID] = entries
}

// Entries returns the session's transitions, oldest first.
func (l *Log) Entries(sessionID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.items[sessionID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Tail returns up to n most recent transitions, oldest first.
func (l *Log) Tail(sessionID string, n int) []Entry {
	entries := l.Entries(sessionID)
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// Drop discards the trail for a disconnected session.
func (l *Log) Drop(sessionID string) {
	l.mu.Lock()
	delete(l.items, sessionID)
	l.mu.Unlock()
}

// Sessions lists session ids with at least one recorded transition.
func (l *Log) Sessions() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.items))
	for id := range l.items {
		out = append(out, id)
	}
	return out
}
