package contexttracker

import "sync"

// Registry hands out one tracker per session, keyed by session identity.
// Creation is idempotent and safe for concurrent callers asking for the
// same session. Trackers share their session's lifetime; the hub forgets
// them when the agent disconnects.
type Registry struct {
	mu       sync.Mutex
	trackers map[Session]*Tracker
	opts     []Option
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{trackers: make(map[Session]*Tracker), opts: opts}
}

// ForSession returns the session's tracker, creating it on first request.
func (r *Registry) ForSession(sess Session) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[sess]; ok {
		return t
	}
	t := New(sess, r.opts...)
	r.trackers[sess] = t
	return t
}

// Forget drops the tracker for a session that has gone away.
func (r *Registry) Forget(sess Session) {
	r.mu.Lock()
	delete(r.trackers, sess)
	r.mu.Unlock()
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
