package gateway

import "sync"

// Sender is the send capability of a live connection. Registry values and
// broadcast targets are Senders so tests can stand in for real sockets.
type Sender interface {
	Send(v interface{}) error
}

// Registry is the process-wide table of live connections keyed by session id.
// At most one entry exists per session id; a reconnect for the same session
// overwrites the previous entry. It is mutated only by the lifecycle
// supervisor and read by the presence broadcaster.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Sender
}

// NewRegistry returns an empty registry. One registry exists per running
// server instance.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Sender)}
}

// Insert stores the connection under its session id, replacing any previous
// entry for that session.
func (r *Registry) Insert(sessionID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = s
}

// Remove deletes the entry for the session id and reports whether an entry
// existed. Cleanup paths use the return value to stay idempotent.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	return ok
}

// Lookup returns the live connection for the session id, if any.
func (r *Registry) Lookup(sessionID string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Contains reports whether the session id has a live connection.
func (r *Registry) Contains(sessionID string) bool {
	_, ok := r.Lookup(sessionID)
	return ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
